package queue

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type WorkTaskRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.WorkTask, error)
	Create(dbc dbctx.Context, tasks []*types.WorkTask) ([]*types.WorkTask, error)
	ClaimNextRunnable(dbc dbctx.Context, staleRunning time.Duration) (*types.WorkTask, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Heartbeat(dbc dbctx.Context, id uuid.UUID) error
}

type workTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkTaskRepo(db *gorm.DB, baseLog *logger.Logger) WorkTaskRepo {
	return &workTaskRepo{
		db:  db,
		log: baseLog.With("repo", "WorkTaskRepo"),
	}
}

func (r *workTaskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.WorkTask, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var task types.WorkTask
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *workTaskRepo) Create(dbc dbctx.Context, tasks []*types.WorkTask) ([]*types.WorkTask, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(tasks) == 0 {
		return []*types.WorkTask{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ClaimNextRunnable locks and claims the oldest runnable task. Runnable means
// queued with its not_before either unset or due, or running with a heartbeat
// older than staleRunning (a worker died mid-task). Attempts is incremented
// at claim time, so the attempt counter always reflects the run in progress.
func (r *workTaskRepo) ClaimNextRunnable(dbc dbctx.Context, staleRunning time.Duration) (*types.WorkTask, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.WorkTask
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var task types.WorkTask
		q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
        (
          status = ?
          AND (not_before IS NULL OR not_before <= ?)
        )
        OR (
          status = ?
          AND heartbeat_at IS NOT NULL
          AND heartbeat_at < ?
        )
      `, types.TaskQueued, now, types.TaskRunning, staleCutoff).
			Order("created_at ASC")
		qErr := q.First(&task).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.WorkTask{}).
			Where("id = ?", task.ID).
			Updates(map[string]interface{}{
				"status":       types.TaskRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}
		task.Status = types.TaskRunning
		task.Attempts++
		claimed = &task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *workTaskRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.WorkTask{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *workTaskRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.WorkTask{}).
		Where("id = ? AND status = ?", id, types.TaskRunning).
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}
