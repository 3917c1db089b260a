package court

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseClaim is one bankruptcy claim on a claims register, keyed by claim
// number within a Case.
type CaseClaim struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CaseID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_claim_case_number" json:"case_id"`
	Case   *Case     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CaseID;references:ID" json:"case,omitempty"`

	ClaimNumber    string     `gorm:"column:claim_number;not null;uniqueIndex:idx_claim_case_number" json:"claim_number"`
	Creditor       string     `gorm:"column:creditor" json:"creditor,omitempty"`
	Description    string     `gorm:"column:description;type:text" json:"description,omitempty"`
	AmountClaimed  string     `gorm:"column:amount_claimed" json:"amount_claimed,omitempty"`
	DateClaimFiled *time.Time `gorm:"column:date_claim_filed" json:"date_claim_filed,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CaseClaim) TableName() string { return "case_claim" }
