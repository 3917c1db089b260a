package court

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type ReferenceCaseRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ReferenceCase, error)
	ListByCourtDocket(dbc dbctx.Context, courtID, docketNumber string) ([]*types.ReferenceCase, error)
	// ListUnlinked pages through reference rows no case has claimed yet,
	// keyset-ordered by id.
	ListUnlinked(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]*types.ReferenceCase, error)
}

type referenceCaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReferenceCaseRepo(db *gorm.DB, baseLog *logger.Logger) ReferenceCaseRepo {
	return &referenceCaseRepo{
		db:  db,
		log: baseLog.With("repo", "ReferenceCaseRepo"),
	}
}

func (r *referenceCaseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ReferenceCase, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var ref types.ReferenceCase
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *referenceCaseRepo) ListUnlinked(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]*types.ReferenceCase, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 500
	}
	var out []*types.ReferenceCase
	q := transaction.WithContext(dbc.Ctx).
		Where("NOT EXISTS (SELECT 1 FROM court_case WHERE court_case.reference_id = reference_case.id)").
		Order("id").
		Limit(limit)
	if afterID != uuid.Nil {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *referenceCaseRepo) ListByCourtDocket(dbc dbctx.Context, courtID, docketNumber string) ([]*types.ReferenceCase, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ReferenceCase
	if courtID == "" || docketNumber == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("court_id = ? AND docket_number = ?", courtID, docketNumber).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
