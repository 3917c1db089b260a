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

type ProcessingQueueRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingQueueItem, error)
	Create(dbc dbctx.Context, item *types.ProcessingQueueItem) error
	Save(dbc dbctx.Context, item *types.ProcessingQueueItem) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ListFailedAttachmentPages(dbc dbctx.Context, courtID string, docSystemIDs []string) ([]*types.ProcessingQueueItem, error)
}

type processingQueueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessingQueueRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingQueueRepo {
	return &processingQueueRepo{
		db:  db,
		log: baseLog.With("repo", "ProcessingQueueRepo"),
	}
}

func (r *processingQueueRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingQueueItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var item types.ProcessingQueueItem
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

func (r *processingQueueRepo) Create(dbc dbctx.Context, item *types.ProcessingQueueItem) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(item).Error
}

func (r *processingQueueRepo) Save(dbc dbctx.Context, item *types.ProcessingQueueItem) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Save(item).Error
}

func (r *processingQueueRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.ProcessingQueueItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListFailedAttachmentPages finds attachment page uploads that failed before
// their parent document existed. Callers pass the document ids now known for
// a case so the failed rows can be replayed.
func (r *processingQueueRepo) ListFailedAttachmentPages(dbc dbctx.Context, courtID string, docSystemIDs []string) ([]*types.ProcessingQueueItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProcessingQueueItem
	if courtID == "" || len(docSystemIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("court_id = ? AND upload_type = ? AND status = ? AND doc_system_id IN ?",
			courtID, types.UploadAttachmentPage, types.StatusFailed, docSystemIDs,
		).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
