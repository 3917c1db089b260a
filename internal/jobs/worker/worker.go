// Package worker runs the task claim loop. Workers poll for runnable
// work_task rows, dispatch them to registered handlers, and drive retry
// rescheduling and chain continuation.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/casepulse/casepulse-backend/internal/data/repos/queue"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/envutil"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     queue.WorkTaskRepo
	registry *runtime.Registry
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo queue.WorkTaskRepo, registry *runtime.Registry) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "TaskWorker"),
		repo:     repo,
		registry: registry,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := envutil.GetEnvInt("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting task worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	staleRunning := 30 * time.Minute

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			task, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
				continue
			}
			if task == nil {
				continue
			}
			w.execute(ctx, workerID, task)
		}
	}
}

func (w *Worker) execute(ctx context.Context, workerID int, task *types.WorkTask) {
	h, ok := w.registry.Get(task.TaskType)
	if !ok {
		w.log.Warn("No handler registered for task_type",
			"worker_id", workerID,
			"task_type", task.TaskType,
			"task_id", task.ID,
		)
		w.markFailed(ctx, task, "no handler registered for task_type="+task.TaskType)
		return
	}

	tc := runtime.NewTaskContext(ctx, w.db, task, w.repo, w.log)

	var res *runtime.StepResult
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Task handler panic",
					"worker_id", workerID,
					"task_id", task.ID,
					"task_type", task.TaskType,
					"panic", r,
				)
				runErr = &panicError{}
			}
		}()
		res, runErr = h.Run(tc)
	}()

	if runErr != nil {
		if runtime.IsRetry(runErr) && task.Attempts < task.MaxAttempts {
			w.reschedule(ctx, task, runErr)
			return
		}
		w.markFailed(ctx, task, runErr.Error())
		return
	}

	w.markSucceeded(ctx, task, res)
	if res == nil || !res.Stop {
		w.continueChain(ctx, task, res)
	}
}

func (w *Worker) reschedule(ctx context.Context, task *types.WorkTask, cause error) {
	policy := runtime.PolicyFor(task.TaskType)
	notBefore := time.Now().Add(policy.NextDelay(task.Attempts))
	err := w.repo.UpdateFields(dbctx.Context{Ctx: ctx}, task.ID, map[string]interface{}{
		"status":     types.TaskQueued,
		"error":      cause.Error(),
		"not_before": notBefore,
		"locked_at":  nil,
	})
	if err != nil {
		w.log.Error("Task reschedule failed", "task_id", task.ID, "error", err)
	}
}

func (w *Worker) markFailed(ctx context.Context, task *types.WorkTask, msg string) {
	err := w.repo.UpdateFields(dbctx.Context{Ctx: ctx}, task.ID, map[string]interface{}{
		"status":    types.TaskFailed,
		"error":     msg,
		"locked_at": nil,
	})
	if err != nil {
		w.log.Error("Task fail write failed", "task_id", task.ID, "error", err)
	}
}

func (w *Worker) markSucceeded(ctx context.Context, task *types.WorkTask, res *runtime.StepResult) {
	updates := map[string]interface{}{
		"status":    types.TaskSucceeded,
		"error":     "",
		"locked_at": nil,
	}
	if res != nil && len(res.Values) > 0 {
		if raw, err := json.Marshal(res.Values); err == nil {
			updates["result"] = datatypes.JSON(raw)
		}
	}
	if err := w.repo.UpdateFields(dbctx.Context{Ctx: ctx}, task.ID, updates); err != nil {
		w.log.Error("Task success write failed", "task_id", task.ID, "error", err)
	}
}

// continueChain pops the next step type off the task's chain and enqueues it
// with the merged payload. The continuation value from this step wins over
// payload keys it shares with the original.
func (w *Worker) continueChain(ctx context.Context, task *types.WorkTask, res *runtime.StepResult) {
	chain, err := runtime.DecodeChain(task)
	if err != nil {
		w.log.Error("Task chain decode failed", "task_id", task.ID, "error", err)
		return
	}
	if len(chain) == 0 {
		return
	}

	payload := map[string]any{}
	if len(task.Payload) > 0 {
		_ = json.Unmarshal(task.Payload, &payload)
	}
	if res != nil {
		for k, v := range res.Values {
			payload[k] = v
		}
	}

	_, err = runtime.Enqueue(dbctx.Context{Ctx: ctx}, w.repo, runtime.TaskSpec{
		Type:        chain[0],
		QueueKind:   task.QueueKind,
		QueueItemID: task.QueueItemID,
		Payload:     payload,
		Chain:       chain[1:],
	})
	if err != nil {
		w.log.Error("Chain continuation enqueue failed",
			"task_id", task.ID,
			"next_type", chain[0],
			"error", err,
		)
	}
}

type panicError struct{}

func (e *panicError) Error() string { return "panic: unexpected error" }
