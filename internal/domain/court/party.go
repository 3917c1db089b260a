package court

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Party struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CaseID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_party_case_name_role" json:"case_id"`
	Case   *Case     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CaseID;references:ID" json:"case,omitempty"`

	Name string `gorm:"column:name;not null;uniqueIndex:idx_party_case_name_role" json:"name"`
	Role string `gorm:"column:role;uniqueIndex:idx_party_case_name_role" json:"role"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Party) TableName() string { return "case_party" }

type PartyAttorney struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PartyID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_attorney_party_name" json:"party_id"`
	Party   *Party    `gorm:"constraint:OnDelete:CASCADE;foreignKey:PartyID;references:ID" json:"party,omitempty"`

	Name    string `gorm:"column:name;not null;uniqueIndex:idx_attorney_party_name" json:"name"`
	Contact string `gorm:"column:contact;type:text" json:"contact,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PartyAttorney) TableName() string { return "case_party_attorney" }
