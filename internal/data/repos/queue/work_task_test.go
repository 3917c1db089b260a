package queue

import (
	"context"
	"testing"
	"time"

	"github.com/casepulse/casepulse-backend/internal/data/repos/testutil"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
)

func TestWorkTaskClaimNextRunnable(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewWorkTaskRepo(gdb, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	processing := testutil.SeedProcessingItem(t, tx)

	older := &types.WorkTask{
		TaskType:    "upload.case_report",
		QueueKind:   types.QueueKindProcessing,
		QueueItemID: processing.ID,
		Status:      types.TaskQueued,
		MaxAttempts: 3,
	}
	newer := &types.WorkTask{
		TaskType:    "upload.case_report",
		QueueKind:   types.QueueKindProcessing,
		QueueItemID: processing.ID,
		Status:      types.TaskQueued,
		MaxAttempts: 3,
	}
	if _, err := repo.Create(dbc, []*types.WorkTask{older, newer}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 30*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if claimed == nil {
		t.Fatalf("expected a claim, got none")
	}
	if claimed.ID != older.ID {
		t.Fatalf("claimed %s, want the oldest queued task %s", claimed.ID, older.ID)
	}
	if claimed.Status != types.TaskRunning {
		t.Fatalf("claimed status = %q, want running", claimed.Status)
	}
	if claimed.Attempts != 1 {
		t.Fatalf("claimed attempts = %d, want 1", claimed.Attempts)
	}

	stored, err := repo.GetByID(dbc, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != types.TaskRunning || stored.Attempts != 1 {
		t.Fatalf("stored task = %q/%d, want running/1", stored.Status, stored.Attempts)
	}
	if stored.LockedAt == nil || stored.HeartbeatAt == nil {
		t.Fatalf("claim must stamp locked_at and heartbeat_at")
	}

	// The second queued task is still claimable; the first is now running
	// with a fresh heartbeat and must not be reclaimed.
	second, err := repo.ClaimNextRunnable(dbc, 30*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable second: %v", err)
	}
	if second == nil || second.ID != newer.ID {
		t.Fatalf("second claim = %+v, want %s", second, newer.ID)
	}

	third, err := repo.ClaimNextRunnable(dbc, 30*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable drained: %v", err)
	}
	if third != nil {
		t.Fatalf("drained queue returned a claim: %+v", third)
	}
}

func TestWorkTaskClaimRespectsNotBefore(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewWorkTaskRepo(gdb, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	processing := testutil.SeedProcessingItem(t, tx)

	future := time.Now().Add(time.Hour)
	deferred := &types.WorkTask{
		TaskType:    "upload.case_report",
		QueueKind:   types.QueueKindProcessing,
		QueueItemID: processing.ID,
		Status:      types.TaskQueued,
		MaxAttempts: 3,
		NotBefore:   &future,
	}
	if _, err := repo.Create(dbc, []*types.WorkTask{deferred}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 30*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if claimed != nil {
		t.Fatalf("task with a future not_before was claimed: %+v", claimed)
	}

	past := time.Now().Add(-time.Minute)
	if err := repo.UpdateFields(dbc, deferred.ID, map[string]interface{}{"not_before": past}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	claimed, err = repo.ClaimNextRunnable(dbc, 30*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable after delay elapsed: %v", err)
	}
	if claimed == nil || claimed.ID != deferred.ID {
		t.Fatalf("due task was not claimed: %+v", claimed)
	}
}

func TestWorkTaskClaimReclaimsStaleRunning(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewWorkTaskRepo(gdb, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	processing := testutil.SeedProcessingItem(t, tx)

	stale := time.Now().Add(-time.Hour)
	orphaned := &types.WorkTask{
		TaskType:    "upload.case_report",
		QueueKind:   types.QueueKindProcessing,
		QueueItemID: processing.ID,
		Status:      types.TaskRunning,
		Attempts:    1,
		MaxAttempts: 3,
		LockedAt:    &stale,
		HeartbeatAt: &stale,
	}
	if _, err := repo.Create(dbc, []*types.WorkTask{orphaned}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 30*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if claimed == nil || claimed.ID != orphaned.ID {
		t.Fatalf("stale running task was not reclaimed: %+v", claimed)
	}
	if claimed.Attempts != 2 {
		t.Fatalf("reclaim attempts = %d, want 2", claimed.Attempts)
	}
}

func TestWorkTaskHeartbeatOnlyTouchesRunning(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewWorkTaskRepo(gdb, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	processing := testutil.SeedProcessingItem(t, tx)

	queued := &types.WorkTask{
		TaskType:    "upload.case_report",
		QueueKind:   types.QueueKindProcessing,
		QueueItemID: processing.ID,
		Status:      types.TaskQueued,
		MaxAttempts: 3,
	}
	if _, err := repo.Create(dbc, []*types.WorkTask{queued}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Heartbeat(dbc, queued.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	stored, err := repo.GetByID(dbc, queued.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.HeartbeatAt != nil {
		t.Fatalf("heartbeat on a queued task must be a no-op, got %v", stored.HeartbeatAt)
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 30*time.Minute)
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNextRunnable: (%+v, %v)", claimed, err)
	}
	if err := repo.Heartbeat(dbc, claimed.ID); err != nil {
		t.Fatalf("Heartbeat running: %v", err)
	}
	stored, err = repo.GetByID(dbc, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID after heartbeat: %v", err)
	}
	if stored.HeartbeatAt == nil {
		t.Fatalf("heartbeat on a running task must stamp heartbeat_at")
	}
}
