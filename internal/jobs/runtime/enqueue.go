package runtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/casepulse/casepulse-backend/internal/data/repos/queue"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
)

// TaskSpec describes a task to enqueue, optionally with a chain of follow-up
// task types that run in order after it succeeds.
type TaskSpec struct {
	Type        string
	QueueKind   string
	QueueItemID uuid.UUID
	Payload     map[string]any
	Chain       []string

	// MaxAttempts overrides the type's policy ceiling when > 0.
	MaxAttempts int
	NotBefore   *time.Time
}

// Enqueue persists a runnable task row for the worker pool to claim.
func Enqueue(dbc dbctx.Context, repo queue.WorkTaskRepo, spec TaskSpec) (*types.WorkTask, error) {
	if spec.Type == "" {
		return nil, fmt.Errorf("task type required")
	}
	if spec.QueueItemID == uuid.Nil {
		return nil, fmt.Errorf("queue item id required")
	}

	maxAttempts := spec.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = PolicyFor(spec.Type).MaxAttempts()
	}

	task := &types.WorkTask{
		TaskType:    spec.Type,
		QueueKind:   spec.QueueKind,
		QueueItemID: spec.QueueItemID,
		Status:      types.TaskQueued,
		MaxAttempts: maxAttempts,
		NotBefore:   spec.NotBefore,
	}
	if len(spec.Payload) > 0 {
		raw, err := json.Marshal(spec.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode task payload: %w", err)
		}
		task.Payload = datatypes.JSON(raw)
	}
	if len(spec.Chain) > 0 {
		raw, err := json.Marshal(spec.Chain)
		if err != nil {
			return nil, fmt.Errorf("encode task chain: %w", err)
		}
		task.Chain = datatypes.JSON(raw)
	}

	created, err := repo.Create(dbc, []*types.WorkTask{task})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// DecodeChain reads the remaining step types stored on a task row.
func DecodeChain(task *types.WorkTask) ([]string, error) {
	if task == nil || len(task.Chain) == 0 {
		return nil, nil
	}
	var chain []string
	if err := json.Unmarshal(task.Chain, &chain); err != nil {
		return nil, fmt.Errorf("decode task chain: %w", err)
	}
	return chain, nil
}
