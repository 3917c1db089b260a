package court

import (
	"time"

	"github.com/google/uuid"
)

// CaseReportFile is an immutable archived copy of raw report text attached to
// a Case, kept so reports can be reparsed later. Rows are never updated.
type CaseReportFile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CaseID uuid.UUID `gorm:"type:uuid;not null;index" json:"case_id"`
	Case   *Case     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CaseID;references:ID" json:"case,omitempty"`

	UploadType int16  `gorm:"column:upload_type;not null" json:"upload_type"`
	StorageKey string `gorm:"column:storage_key;not null" json:"storage_key"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (CaseReportFile) TableName() string { return "case_report_file" }
