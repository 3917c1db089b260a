package court

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseEntry is one chronological line item within a Case. The entry number is
// stable once assigned.
type CaseEntry struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CaseID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_entry_case_number" json:"case_id"`
	Case   *Case     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CaseID;references:ID" json:"case,omitempty"`

	EntryNumber int64      `gorm:"column:entry_number;not null;uniqueIndex:idx_entry_case_number" json:"entry_number"`
	DateFiled   *time.Time `gorm:"column:date_filed" json:"date_filed,omitempty"`
	Description string     `gorm:"column:description;type:text" json:"description"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CaseEntry) TableName() string { return "case_entry" }
