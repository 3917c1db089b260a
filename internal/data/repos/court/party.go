package court

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type PartyRepo interface {
	GetByCaseNameRole(dbc dbctx.Context, caseID uuid.UUID, name, role string) (*types.Party, error)
	Create(dbc dbctx.Context, party *types.Party) error
	GetAttorney(dbc dbctx.Context, partyID uuid.UUID, name string) (*types.PartyAttorney, error)
	CreateAttorney(dbc dbctx.Context, attorney *types.PartyAttorney) error
	SaveAttorney(dbc dbctx.Context, attorney *types.PartyAttorney) error
}

type partyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPartyRepo(db *gorm.DB, baseLog *logger.Logger) PartyRepo {
	return &partyRepo{
		db:  db,
		log: baseLog.With("repo", "PartyRepo"),
	}
}

func (r *partyRepo) GetByCaseNameRole(dbc dbctx.Context, caseID uuid.UUID, name, role string) (*types.Party, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if caseID == uuid.Nil || name == "" {
		return nil, nil
	}
	var party types.Party
	err := transaction.WithContext(dbc.Ctx).
		Where("case_id = ? AND name = ? AND role = ?", caseID, name, role).
		First(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepo) Create(dbc dbctx.Context, party *types.Party) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(party).Error
}

func (r *partyRepo) GetAttorney(dbc dbctx.Context, partyID uuid.UUID, name string) (*types.PartyAttorney, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if partyID == uuid.Nil || name == "" {
		return nil, nil
	}
	var attorney types.PartyAttorney
	err := transaction.WithContext(dbc.Ctx).
		Where("party_id = ? AND name = ?", partyID, name).
		First(&attorney).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attorney, nil
}

func (r *partyRepo) CreateAttorney(dbc dbctx.Context, attorney *types.PartyAttorney) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(attorney).Error
}

func (r *partyRepo) SaveAttorney(dbc dbctx.Context, attorney *types.PartyAttorney) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Save(attorney).Error
}
