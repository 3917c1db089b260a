package queue

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadType identifies which pipeline the Dispatcher selects for an upload.
type UploadType int16

const (
	UploadCaseDocket              UploadType = 1
	UploadAttachmentPage          UploadType = 2
	UploadDocument                UploadType = 3
	UploadCaseDocketHistory       UploadType = 4
	UploadAppellateDocket         UploadType = 5
	UploadAppellateAttachmentPage UploadType = 6
	UploadClaimsRegister          UploadType = 7
	UploadDocumentArchive         UploadType = 8
)

func (t UploadType) String() string {
	switch t {
	case UploadCaseDocket:
		return "case_docket"
	case UploadAttachmentPage:
		return "case_attachment_page"
	case UploadDocument:
		return "single_document"
	case UploadCaseDocketHistory:
		return "case_docket_history"
	case UploadAppellateDocket:
		return "appellate_case_docket"
	case UploadAppellateAttachmentPage:
		return "appellate_attachment_page"
	case UploadClaimsRegister:
		return "claims_register"
	case UploadDocumentArchive:
		return "document_archive"
	default:
		return "unknown"
	}
}

// ProcessingQueueItem is one user/API-submitted upload. Created at submission
// time, mutated only by the pipeline task processing it, never deleted (the
// terminal state is retained for audit).
type ProcessingQueueItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UploaderID uuid.UUID `gorm:"type:uuid;column:uploader_id;index" json:"uploader_id"`

	CourtID          string     `gorm:"column:court_id;not null;index" json:"court_id"`
	CaseSystemID     string     `gorm:"column:case_system_id;index" json:"case_system_id,omitempty"`
	DocSystemID      string     `gorm:"column:doc_system_id;index" json:"doc_system_id,omitempty"`
	DocumentNumber   string     `gorm:"column:document_number" json:"document_number,omitempty"`
	AttachmentNumber *int       `gorm:"column:attachment_number" json:"attachment_number,omitempty"`
	UploadType       UploadType `gorm:"column:upload_type;not null;index" json:"upload_type"`

	// Reference to the raw uploaded blob; deleted once the item reaches a
	// terminal state, retained while QUEUED_FOR_RETRY.
	StorageKey string `gorm:"column:storage_key" json:"storage_key"`

	// Debug items never mutate persistent case data.
	Debug bool `gorm:"column:debug;not null;default:false" json:"debug"`

	Status       Status `gorm:"column:status;not null;default:1;index" json:"status"`
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message"`

	CaseID     *uuid.UUID `gorm:"type:uuid;column:case_id;index" json:"case_id,omitempty"`
	EntryID    *uuid.UUID `gorm:"type:uuid;column:entry_id" json:"entry_id,omitempty"`
	DocumentID *uuid.UUID `gorm:"type:uuid;column:document_id" json:"document_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProcessingQueueItem) TableName() string { return "processing_queue" }
