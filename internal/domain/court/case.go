package court

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source flags record which origins have contributed data to a Case.
const (
	SourceUpload    = 1
	SourceFetch     = 2
	SourceReference = 4
)

type Case struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourtID      string    `gorm:"column:court_id;not null;index;uniqueIndex:idx_case_court_system" json:"court_id"`
	CaseSystemID *string   `gorm:"column:case_system_id;uniqueIndex:idx_case_court_system" json:"case_system_id,omitempty"`
	DocketNumber string    `gorm:"column:docket_number;not null;index" json:"docket_number"`
	CaseName     string    `gorm:"column:case_name" json:"case_name"`

	DateFiled      *time.Time `gorm:"column:date_filed" json:"date_filed,omitempty"`
	DateTerminated *time.Time `gorm:"column:date_terminated" json:"date_terminated,omitempty"`

	NatureOfSuit     string `gorm:"column:nature_of_suit" json:"nature_of_suit,omitempty"`
	JurisdictionType string `gorm:"column:jurisdiction_type" json:"jurisdiction_type,omitempty"`

	Source int `gorm:"column:source;not null;default:0" json:"source"`

	// At most one Case may hold a given reference-row back-link.
	ReferenceID *uuid.UUID `gorm:"type:uuid;column:reference_id;uniqueIndex" json:"reference_id,omitempty"`

	// Set when document content changes so the archival job knows a fresh
	// snapshot of the case is due.
	SnapshotNeeded bool `gorm:"column:snapshot_needed;not null;default:false" json:"snapshot_needed"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Case) TableName() string { return "court_case" }

func (c *Case) AddSource(flag int)      { c.Source |= flag }
func (c *Case) HasSource(flag int) bool { return c.Source&flag != 0 }
