package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casepulse/casepulse-backend/internal/data/repos/queue"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// TaskContext is the execution handle for one claimed task run. It wraps the
// task row, the database handle, and payload access. Pipelines never write
// work_task rows directly; the worker owns the task lifecycle.
type TaskContext struct {
	Ctx  context.Context
	DB   *gorm.DB
	Task *types.WorkTask
	Repo queue.WorkTaskRepo
	Log  *logger.Logger

	payload map[string]any
}

func NewTaskContext(ctx context.Context, db *gorm.DB, task *types.WorkTask, repo queue.WorkTaskRepo, log *logger.Logger) *TaskContext {
	tc := &TaskContext{
		Ctx:  ctx,
		DB:   db,
		Task: task,
		Repo: repo,
		Log:  log,
	}
	_ = tc.decodePayload()
	return tc
}

func (tc *TaskContext) decodePayload() error {
	if tc.Task == nil || len(tc.Task.Payload) == 0 {
		tc.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(tc.Task.Payload, &m); err != nil {
		tc.payload = map[string]any{}
		return err
	}
	tc.payload = m
	return nil
}

// Payload never returns nil; an unset or unparseable payload reads as empty.
func (tc *TaskContext) Payload() map[string]any {
	if tc.payload == nil {
		tc.payload = map[string]any{}
	}
	return tc.payload
}

func (tc *TaskContext) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := tc.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (tc *TaskContext) PayloadString(key string) (string, bool) {
	v, ok := tc.Payload()[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (tc *TaskContext) PayloadBool(key string) bool {
	v, ok := tc.Payload()[key]
	if !ok || v == nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

// QueueItemID is the queue row this task operates on.
func (tc *TaskContext) QueueItemID() uuid.UUID {
	if tc.Task == nil {
		return uuid.Nil
	}
	return tc.Task.QueueItemID
}

// RetriesExhausted reports whether the current run is the task's last
// permitted attempt. Attempts is incremented at claim time, so this is true
// during the final run, not after it.
func (tc *TaskContext) RetriesExhausted() bool {
	if tc.Task == nil {
		return true
	}
	return tc.Task.Attempts >= tc.Task.MaxAttempts
}

func (tc *TaskContext) Heartbeat() {
	if tc.Task == nil || tc.Task.ID == uuid.Nil {
		return
	}
	_ = tc.Repo.Heartbeat(dbctx.Context{Ctx: tc.Ctx}, tc.Task.ID)
}
