package court

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceCase is one row of the external reference database (a bulk-loaded
// government case index). Read-mostly: the pipeline only matches and merges
// it into Cases.
type ReferenceCase struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	CourtID      string  `gorm:"column:court_id;not null;index:idx_reference_court_docket" json:"court_id"`
	DocketNumber string  `gorm:"column:docket_number;not null;index:idx_reference_court_docket" json:"docket_number"`
	CaseSystemID *string `gorm:"column:case_system_id" json:"case_system_id,omitempty"`

	Plaintiff string `gorm:"column:plaintiff" json:"plaintiff"`
	Defendant string `gorm:"column:defendant" json:"defendant"`

	DateFiled        *time.Time `gorm:"column:date_filed" json:"date_filed,omitempty"`
	DateTerminated   *time.Time `gorm:"column:date_terminated" json:"date_terminated,omitempty"`
	NatureOfSuit     string     `gorm:"column:nature_of_suit" json:"nature_of_suit,omitempty"`
	JurisdictionType string     `gorm:"column:jurisdiction_type" json:"jurisdiction_type,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReferenceCase) TableName() string { return "reference_case" }

// CaseName synthesizes the "plaintiff v. defendant" style name used when
// matching a reference row against candidate Cases.
func (r *ReferenceCase) CaseName() string {
	return r.Plaintiff + " v. " + r.Defendant
}
