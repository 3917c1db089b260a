package court

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type CaseClaimRepo interface {
	GetByCaseAndNumber(dbc dbctx.Context, caseID uuid.UUID, claimNumber string) (*types.CaseClaim, error)
	Create(dbc dbctx.Context, claim *types.CaseClaim) error
	Save(dbc dbctx.Context, claim *types.CaseClaim) error
}

type caseClaimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseClaimRepo(db *gorm.DB, baseLog *logger.Logger) CaseClaimRepo {
	return &caseClaimRepo{
		db:  db,
		log: baseLog.With("repo", "CaseClaimRepo"),
	}
}

func (r *caseClaimRepo) GetByCaseAndNumber(dbc dbctx.Context, caseID uuid.UUID, claimNumber string) (*types.CaseClaim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if caseID == uuid.Nil || claimNumber == "" {
		return nil, nil
	}
	var claim types.CaseClaim
	err := transaction.WithContext(dbc.Ctx).
		Where("case_id = ? AND claim_number = ?", caseID, claimNumber).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *caseClaimRepo) Create(dbc dbctx.Context, claim *types.CaseClaim) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(claim).Error
}

func (r *caseClaimRepo) Save(dbc dbctx.Context, claim *types.CaseClaim) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Save(claim).Error
}
