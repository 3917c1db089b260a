package court

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OriginatingCourtInfo carries lower-court metadata for an appellate Case.
type OriginatingCourtInfo struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CaseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"case_id"`
	Case   *Case     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CaseID;references:ID" json:"case,omitempty"`

	CourtID      string     `gorm:"column:court_id" json:"court_id"`
	DocketNumber string     `gorm:"column:docket_number" json:"docket_number"`
	AssignedTo   string     `gorm:"column:assigned_to" json:"assigned_to,omitempty"`
	DateFiled    *time.Time `gorm:"column:date_filed" json:"date_filed,omitempty"`
	DateDisposed *time.Time `gorm:"column:date_disposed" json:"date_disposed,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (OriginatingCourtInfo) TableName() string { return "originating_court_info" }
