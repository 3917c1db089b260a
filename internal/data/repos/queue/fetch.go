package queue

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type FetchQueueRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FetchQueueItem, error)
	Create(dbc dbctx.Context, item *types.FetchQueueItem) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type fetchQueueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFetchQueueRepo(db *gorm.DB, baseLog *logger.Logger) FetchQueueRepo {
	return &fetchQueueRepo{
		db:  db,
		log: baseLog.With("repo", "FetchQueueRepo"),
	}
}

func (r *fetchQueueRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FetchQueueItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var item types.FetchQueueItem
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *fetchQueueRepo) Create(dbc dbctx.Context, item *types.FetchQueueItem) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(item).Error
}

func (r *fetchQueueRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.FetchQueueItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}
