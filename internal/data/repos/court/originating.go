package court

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type OriginatingCourtInfoRepo interface {
	GetByCase(dbc dbctx.Context, caseID uuid.UUID) (*types.OriginatingCourtInfo, error)
	Create(dbc dbctx.Context, info *types.OriginatingCourtInfo) error
	Save(dbc dbctx.Context, info *types.OriginatingCourtInfo) error
}

type originatingCourtInfoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOriginatingCourtInfoRepo(db *gorm.DB, baseLog *logger.Logger) OriginatingCourtInfoRepo {
	return &originatingCourtInfoRepo{
		db:  db,
		log: baseLog.With("repo", "OriginatingCourtInfoRepo"),
	}
}

func (r *originatingCourtInfoRepo) GetByCase(dbc dbctx.Context, caseID uuid.UUID) (*types.OriginatingCourtInfo, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if caseID == uuid.Nil {
		return nil, nil
	}
	var info types.OriginatingCourtInfo
	err := transaction.WithContext(dbc.Ctx).
		Where("case_id = ?", caseID).
		First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *originatingCourtInfoRepo) Create(dbc dbctx.Context, info *types.OriginatingCourtInfo) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(info).Error
}

func (r *originatingCourtInfoRepo) Save(dbc dbctx.Context, info *types.OriginatingCourtInfo) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Save(info).Error
}
