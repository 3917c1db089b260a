package court

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DocTypeMain       = 1
	DocTypeAttachment = 2
)

// CaseDocument is one filed document or attachment under a CaseEntry. The
// content hash and availability flag together gate whether newly uploaded
// bytes replace stored content.
type CaseDocument struct {
	ID      uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EntryID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_doc_entry_number_att_type" json:"entry_id"`
	Entry   *CaseEntry `gorm:"constraint:OnDelete:CASCADE;foreignKey:EntryID;references:ID" json:"entry,omitempty"`

	DocumentNumber   string `gorm:"column:document_number;not null;uniqueIndex:idx_doc_entry_number_att_type" json:"document_number"`
	AttachmentNumber *int   `gorm:"column:attachment_number;uniqueIndex:idx_doc_entry_number_att_type" json:"attachment_number,omitempty"`
	DocumentType     int16  `gorm:"column:document_type;not null;uniqueIndex:idx_doc_entry_number_att_type" json:"document_type"`

	// The remote system's identifier for this document, when known.
	DocSystemID *string `gorm:"column:doc_system_id;index" json:"doc_system_id,omitempty"`

	Description string `gorm:"column:description;type:text" json:"description"`

	SHA1        string     `gorm:"column:sha1" json:"sha1"`
	PageCount   *int       `gorm:"column:page_count" json:"page_count,omitempty"`
	FileSize    *int64     `gorm:"column:file_size" json:"file_size,omitempty"`
	StorageKey  string     `gorm:"column:storage_key" json:"storage_key"`
	IsAvailable bool       `gorm:"column:is_available;not null;default:false" json:"is_available"`
	DateUpload  *time.Time `gorm:"column:date_upload" json:"date_upload,omitempty"`

	// Cached text-extraction state; cleared whenever the content changes.
	PlainText   string     `gorm:"column:plain_text;type:text" json:"plain_text,omitempty"`
	ExtractedAt *time.Time `gorm:"column:extracted_at" json:"extracted_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CaseDocument) TableName() string { return "case_document" }
