package queue

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestType identifies what a FetchQueueItem retrieves from the remote
// court records system.
type RequestType int16

const (
	FetchCase           RequestType = 1
	FetchDocument       RequestType = 2
	FetchAttachmentPage RequestType = 3
)

func (t RequestType) String() string {
	switch t {
	case FetchCase:
		return "case"
	case FetchDocument:
		return "single_document"
	case FetchAttachmentPage:
		return "attachment_page"
	default:
		return "unknown"
	}
}

// FetchQueueItem is one on-demand retrieval job. DateCompleted is set if and
// only if the item reaches StatusSuccessful.
type FetchQueueItem struct {
	ID     uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID   `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Type   RequestType `gorm:"column:request_type;not null;index" json:"request_type"`

	CaseID     *uuid.UUID `gorm:"type:uuid;column:case_id;index" json:"case_id,omitempty"`
	DocumentID *uuid.UUID `gorm:"type:uuid;column:document_id;index" json:"document_id,omitempty"`

	CourtID      string `gorm:"column:court_id;index" json:"court_id,omitempty"`
	DocketNumber string `gorm:"column:docket_number" json:"docket_number,omitempty"`

	// Optional range filters for case fetches.
	EntryNumStart *int       `gorm:"column:entry_num_start" json:"entry_num_start,omitempty"`
	EntryNumEnd   *int       `gorm:"column:entry_num_end" json:"entry_num_end,omitempty"`
	DateStart     *time.Time `gorm:"column:date_start" json:"date_start,omitempty"`
	DateEnd       *time.Time `gorm:"column:date_end" json:"date_end,omitempty"`
	ShowParties   bool       `gorm:"column:show_parties;not null;default:false" json:"show_parties"`

	Status        Status     `gorm:"column:status;not null;default:1;index" json:"status"`
	Message       string     `gorm:"column:message;type:text" json:"message"`
	DateCompleted *time.Time `gorm:"column:date_completed" json:"date_completed,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FetchQueueItem) TableName() string { return "fetch_queue" }
