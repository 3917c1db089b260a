package court

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type CaseRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Case, error)
	GetBySystemID(dbc dbctx.Context, courtID, caseSystemID string) (*types.Case, error)
	ListByCourtDocket(dbc dbctx.Context, courtID, docketNumber string) ([]*types.Case, error)
	GetByReferenceID(dbc dbctx.Context, referenceID uuid.UUID) (*types.Case, error)
	Create(dbc dbctx.Context, courtCase *types.Case) error
	Save(dbc dbctx.Context, courtCase *types.Case) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ClearReferenceLink(dbc dbctx.Context, referenceID uuid.UUID) error
}

type caseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseRepo(db *gorm.DB, baseLog *logger.Logger) CaseRepo {
	return &caseRepo{
		db:  db,
		log: baseLog.With("repo", "CaseRepo"),
	}
}

func (r *caseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var courtCase types.Case
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&courtCase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &courtCase, nil
}

func (r *caseRepo) GetBySystemID(dbc dbctx.Context, courtID, caseSystemID string) (*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if courtID == "" || caseSystemID == "" {
		return nil, nil
	}
	var courtCase types.Case
	err := transaction.WithContext(dbc.Ctx).
		Where("court_id = ? AND case_system_id = ?", courtID, caseSystemID).
		First(&courtCase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &courtCase, nil
}

func (r *caseRepo) ListByCourtDocket(dbc dbctx.Context, courtID, docketNumber string) ([]*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Case
	if courtID == "" || docketNumber == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("court_id = ? AND docket_number = ?", courtID, docketNumber).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *caseRepo) GetByReferenceID(dbc dbctx.Context, referenceID uuid.UUID) (*types.Case, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if referenceID == uuid.Nil {
		return nil, nil
	}
	var courtCase types.Case
	err := transaction.WithContext(dbc.Ctx).
		Where("reference_id = ?", referenceID).
		First(&courtCase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &courtCase, nil
}

func (r *caseRepo) Create(dbc dbctx.Context, courtCase *types.Case) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(courtCase).Error
}

func (r *caseRepo) Save(dbc dbctx.Context, courtCase *types.Case) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Save(courtCase).Error
}

func (r *caseRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ClearReferenceLink detaches whichever case currently holds the backlink to
// the given reference row, freeing it for a new link.
func (r *caseRepo) ClearReferenceLink(dbc dbctx.Context, referenceID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if referenceID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Where("reference_id = ?", referenceID).
		Update("reference_id", nil).Error
}
