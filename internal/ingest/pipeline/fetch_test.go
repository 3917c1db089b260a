package pipeline

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casepulse/casepulse-backend/internal/clients/courts"
	"github.com/casepulse/casepulse-backend/internal/clients/redis"
	"github.com/casepulse/casepulse-backend/internal/data/repos/testutil"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
)

func seedFetchCaseItem(t *testing.T, gdb *gorm.DB) *types.FetchQueueItem {
	t.Helper()
	item := &types.FetchQueueItem{
		UserID:       uuid.New(),
		Type:         types.FetchCase,
		CourtID:      "txed",
		DocketNumber: "2:20-cv-00123",
		Status:       types.StatusEnqueued,
	}
	if err := gdb.Create(item).Error; err != nil {
		t.Fatalf("seed fetch item: %v", err)
	}
	t.Cleanup(func() {
		gdb.Unscoped().Where("id = ?", item.ID).Delete(&types.FetchQueueItem{})
	})
	return item
}

func fetchCaseTaskContext(t *testing.T, gdb *gorm.DB, p *Pipeline, itemID uuid.UUID, attempts, maxAttempts int) *runtime.TaskContext {
	t.Helper()
	task := &types.WorkTask{
		TaskType:    TaskFetchCase,
		QueueKind:   types.QueueKindFetch,
		QueueItemID: itemID,
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
	}
	return runtime.NewTaskContext(context.Background(), gdb, task, p.repos.WorkTask, testutil.Logger(t))
}

// A rejected court session parks the fetch for retry rather than failing it;
// a fresh credential cached between attempts can rescue a later run.
func TestFetchCaseAuthErrorParksForRetry(t *testing.T) {
	gdb := testutil.DB(t)
	creds := &stubCredentialCache{creds: &redis.SessionCredentials{UserID: uuid.New(), Cookies: "session"}}
	sessions := &stubSessionProvider{session: &stubSession{lookupErr: courts.ErrAuth}}
	p, rp := newTestPipeline(t, gdb, &stubReportParser{}, newStubBucket(), sessions, creds)

	item := seedFetchCaseItem(t, gdb)
	tc := fetchCaseTaskContext(t, gdb, p, item.ID, 1, 4)

	res, err := p.runFetchCase(tc)
	if err == nil || !runtime.IsRetry(err) {
		t.Fatalf("auth failure should request a reschedule, got (%+v, %v)", res, err)
	}

	stored, gerr := rp.Fetch.GetByID(dbctx.Context{Ctx: context.Background()}, item.ID)
	if gerr != nil {
		t.Fatalf("reload item: %v", gerr)
	}
	if stored.Status != types.StatusQueuedForRetry {
		t.Fatalf("status = %s, want QUEUED_FOR_RETRY", stored.Status)
	}
}

func TestFetchCaseAuthErrorFailsOnceRetriesExhaust(t *testing.T) {
	gdb := testutil.DB(t)
	creds := &stubCredentialCache{creds: &redis.SessionCredentials{UserID: uuid.New(), Cookies: "session"}}
	sessions := &stubSessionProvider{session: &stubSession{lookupErr: courts.ErrAuth}}
	p, rp := newTestPipeline(t, gdb, &stubReportParser{}, newStubBucket(), sessions, creds)

	item := seedFetchCaseItem(t, gdb)
	tc := fetchCaseTaskContext(t, gdb, p, item.ID, 4, 4)

	res, err := p.runFetchCase(tc)
	if err != nil {
		t.Fatalf("runFetchCase: %v", err)
	}
	if res == nil || !res.Stop {
		t.Fatalf("exhausted retries should halt the chain, got %+v", res)
	}

	stored, gerr := rp.Fetch.GetByID(dbctx.Context{Ctx: context.Background()}, item.ID)
	if gerr != nil {
		t.Fatalf("reload item: %v", gerr)
	}
	if stored.Status != types.StatusFailed {
		t.Fatalf("status = %s, want FAILED", stored.Status)
	}
}

// No cached credential stays terminal: the retry loop cannot conjure a login.
func TestFetchCaseMissingCredentialFailsTerminally(t *testing.T) {
	gdb := testutil.DB(t)
	creds := &stubCredentialCache{}
	sessions := &stubSessionProvider{session: &stubSession{}}
	p, rp := newTestPipeline(t, gdb, &stubReportParser{}, newStubBucket(), sessions, creds)

	item := seedFetchCaseItem(t, gdb)
	tc := fetchCaseTaskContext(t, gdb, p, item.ID, 1, 4)

	res, err := p.runFetchCase(tc)
	if err != nil {
		t.Fatalf("runFetchCase: %v", err)
	}
	if res == nil || !res.Stop {
		t.Fatalf("missing credential should halt the chain, got %+v", res)
	}

	stored, gerr := rp.Fetch.GetByID(dbctx.Context{Ctx: context.Background()}, item.ID)
	if gerr != nil {
		t.Fatalf("reload item: %v", gerr)
	}
	if stored.Status != types.StatusFailed {
		t.Fatalf("status = %s, want FAILED", stored.Status)
	}
}
