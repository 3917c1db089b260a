package court

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type CaseEntryRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CaseEntry, error)
	GetByCaseAndNumber(dbc dbctx.Context, caseID uuid.UUID, entryNumber int64) (*types.CaseEntry, error)
	ListByCase(dbc dbctx.Context, caseID uuid.UUID) ([]*types.CaseEntry, error)
	Create(dbc dbctx.Context, entry *types.CaseEntry) error
	Save(dbc dbctx.Context, entry *types.CaseEntry) error
}

type caseEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseEntryRepo(db *gorm.DB, baseLog *logger.Logger) CaseEntryRepo {
	return &caseEntryRepo{
		db:  db,
		log: baseLog.With("repo", "CaseEntryRepo"),
	}
}

func (r *caseEntryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CaseEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var entry types.CaseEntry
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *caseEntryRepo) GetByCaseAndNumber(dbc dbctx.Context, caseID uuid.UUID, entryNumber int64) (*types.CaseEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if caseID == uuid.Nil {
		return nil, nil
	}
	var entry types.CaseEntry
	err := transaction.WithContext(dbc.Ctx).
		Where("case_id = ? AND entry_number = ?", caseID, entryNumber).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *caseEntryRepo) ListByCase(dbc dbctx.Context, caseID uuid.UUID) ([]*types.CaseEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CaseEntry
	if caseID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("case_id = ?", caseID).
		Order("entry_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *caseEntryRepo) Create(dbc dbctx.Context, entry *types.CaseEntry) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(entry).Error
}

func (r *caseEntryRepo) Save(dbc dbctx.Context, entry *types.CaseEntry) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Save(entry).Error
}
