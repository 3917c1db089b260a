package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casepulse/casepulse-backend/internal/data/repos/queue"
	"github.com/casepulse/casepulse-backend/internal/data/repos/testutil"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
)

const alwaysRetryTaskType = "testonly.always-retry"

// alwaysRetryHandler asks for a reschedule on every run and counts how many
// times the worker actually invoked it.
type alwaysRetryHandler struct {
	runs int
}

func (h *alwaysRetryHandler) Type() string { return alwaysRetryTaskType }

func (h *alwaysRetryHandler) Run(_ *runtime.TaskContext) (*runtime.StepResult, error) {
	h.runs++
	return nil, runtime.Retry(errors.New("transient downstream failure"))
}

// A task whose handler retries forever must run MaxRetries+1 times and then
// land terminally failed, never queued again.
func TestWorkerRetryExhaustionFailsTask(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	repo := queue.NewWorkTaskRepo(gdb, log)
	registry := runtime.NewRegistry()
	handler := &alwaysRetryHandler{}
	if err := registry.Register(handler); err != nil {
		t.Fatalf("register handler: %v", err)
	}
	runtime.RegisterPolicy(alwaysRetryTaskType, runtime.RetryPolicy{
		MaxRetries: 2,
		Delay:      time.Millisecond,
	})
	w := NewWorker(gdb, log, repo, registry)

	item := testutil.SeedProcessingItem(t, gdb)
	t.Cleanup(func() {
		gdb.Unscoped().Where("id = ?", item.ID).Delete(&types.ProcessingQueueItem{})
	})

	task, err := runtime.Enqueue(dbc, repo, runtime.TaskSpec{
		Type:        alwaysRetryTaskType,
		QueueKind:   types.QueueKindProcessing,
		QueueItemID: item.ID,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	t.Cleanup(func() {
		gdb.Unscoped().Where("id = ?", task.ID).Delete(&types.WorkTask{})
	})
	if task.MaxAttempts != 3 {
		t.Fatalf("task MaxAttempts = %d, want 3 from the registered policy", task.MaxAttempts)
	}

	for attempt := 1; attempt <= 3; attempt++ {
		// Rescheduling parks the row behind its delay; clear it so the
		// next claim is immediate.
		if err := repo.UpdateFields(dbc, task.ID, map[string]interface{}{
			"not_before": nil,
		}); err != nil {
			t.Fatalf("clear not_before before attempt %d: %v", attempt, err)
		}

		claimed, err := repo.ClaimNextRunnable(dbc, 30*time.Minute)
		if err != nil {
			t.Fatalf("claim attempt %d: %v", attempt, err)
		}
		if claimed == nil || claimed.ID != task.ID {
			t.Fatalf("claim attempt %d did not return the enqueued task", attempt)
		}
		if claimed.Attempts != attempt {
			t.Fatalf("claim attempt %d recorded Attempts=%d", attempt, claimed.Attempts)
		}

		w.execute(ctx, 1, claimed)

		got, err := repo.GetByID(dbc, task.ID)
		if err != nil {
			t.Fatalf("reload after attempt %d: %v", attempt, err)
		}
		if attempt < 3 {
			if got.Status != types.TaskQueued {
				t.Fatalf("after attempt %d status = %q, want requeued", attempt, got.Status)
			}
		} else {
			if got.Status != types.TaskFailed {
				t.Fatalf("after final attempt status = %q, want failed", got.Status)
			}
			if got.Error == "" {
				t.Fatalf("failed task should record the handler error")
			}
		}
	}

	if handler.runs != 3 {
		t.Fatalf("handler ran %d times, want 3", handler.runs)
	}
}
