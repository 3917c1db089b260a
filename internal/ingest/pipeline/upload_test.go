package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/casepulse/casepulse-backend/internal/data/repos/testutil"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/parser"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
)

func saveUploadItem(t *testing.T, gdb *gorm.DB, item *types.ProcessingQueueItem) {
	t.Helper()
	if err := gdb.Create(item).Error; err != nil {
		t.Fatalf("seed processing item: %v", err)
	}
	t.Cleanup(func() {
		gdb.Unscoped().Where("id = ?", item.ID).Delete(&types.ProcessingQueueItem{})
	})
}

func uploadTaskContext(t *testing.T, gdb *gorm.DB, p *Pipeline, itemID uuid.UUID, taskType string, payload map[string]any) *runtime.TaskContext {
	t.Helper()
	task := &types.WorkTask{
		TaskType:    taskType,
		QueueKind:   types.QueueKindProcessing,
		QueueItemID: itemID,
		Attempts:    1,
		MaxAttempts: 4,
	}
	if len(payload) > 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		task.Payload = datatypes.JSON(raw)
	}
	return runtime.NewTaskContext(context.Background(), gdb, task, p.repos.WorkTask, testutil.Logger(t))
}

// An attachment page that names its own case repairs an item whose client
// sent no usable case identifier.
func TestUploadAttachmentPageRepairsCaseIDFromPage(t *testing.T) {
	gdb := testutil.DB(t)
	bucket := newStubBucket()
	ps := &stubReportParser{page: &parser.AttachmentPageData{
		CaseSystemID:   "998877",
		DocSystemID:    "112233",
		DocumentNumber: "5",
	}}
	p, rp := newTestPipeline(t, gdb, ps, bucket, &stubSessionProvider{}, &stubCredentialCache{})

	item := &types.ProcessingQueueItem{
		UploaderID:   uuid.New(),
		CourtID:      "txed",
		CaseSystemID: "undefined",
		UploadType:   types.UploadAttachmentPage,
		StorageKey:   "uploads/menu.html",
		Debug:        true,
		Status:       types.StatusEnqueued,
	}
	saveUploadItem(t, gdb, item)
	bucket.objects[bucketKey(gcp.BucketCategoryUpload, item.StorageKey)] = []byte("attachment menu")

	tc := uploadTaskContext(t, gdb, p, item.ID, TaskUploadAttachmentPage, nil)
	res, err := p.runUploadAttachmentPage(tc)
	if err != nil {
		t.Fatalf("runUploadAttachmentPage: %v", err)
	}
	if res == nil || !res.Stop {
		t.Fatalf("debug item should halt the chain, got %+v", res)
	}

	stored, gerr := rp.Processing.GetByID(dbctx.Context{Ctx: context.Background()}, item.ID)
	if gerr != nil {
		t.Fatalf("reload item: %v", gerr)
	}
	if stored.Status != types.StatusSuccessful {
		t.Fatalf("status = %s, want SUCCESSFUL", stored.Status)
	}
	if stored.CaseSystemID != "998877" {
		t.Fatalf("case_system_id = %q, want the page's identifier", stored.CaseSystemID)
	}
	if !bucket.deletedUpload(item.StorageKey) {
		t.Fatalf("consumed upload blob was not deleted")
	}
}

// Claims registers have no debug parse path; a debug item succeeds as soon
// as the upload text decodes, with no parser call.
func TestUploadClaimsRegisterDebugSkipsParsing(t *testing.T) {
	gdb := testutil.DB(t)
	bucket := newStubBucket()
	ps := &stubReportParser{}
	p, rp := newTestPipeline(t, gdb, ps, bucket, &stubSessionProvider{}, &stubCredentialCache{})

	item := &types.ProcessingQueueItem{
		UploaderID: uuid.New(),
		CourtID:    "nysb",
		UploadType: types.UploadClaimsRegister,
		StorageKey: "uploads/claims.html",
		Debug:      true,
		Status:     types.StatusEnqueued,
	}
	saveUploadItem(t, gdb, item)
	bucket.objects[bucketKey(gcp.BucketCategoryUpload, item.StorageKey)] = []byte("claims register")

	tc := uploadTaskContext(t, gdb, p, item.ID, TaskUploadCaseReport,
		map[string]any{"variant": string(parser.KindClaimsRegister)})
	res, err := p.runUploadCaseReport(tc)
	if err != nil {
		t.Fatalf("runUploadCaseReport: %v", err)
	}
	if res == nil || !res.Stop {
		t.Fatalf("debug item should halt the chain, got %+v", res)
	}
	if ps.parseCalls != 0 {
		t.Fatalf("claims register debug item was parsed %d times, want 0", ps.parseCalls)
	}

	stored, gerr := rp.Processing.GetByID(dbctx.Context{Ctx: context.Background()}, item.ID)
	if gerr != nil {
		t.Fatalf("reload item: %v", gerr)
	}
	if stored.Status != types.StatusSuccessful {
		t.Fatalf("status = %s, want SUCCESSFUL", stored.Status)
	}
	if stored.ErrorMessage != "Successful (debug: no persistence)." {
		t.Fatalf("message = %q", stored.ErrorMessage)
	}
	if !bucket.deletedUpload(item.StorageKey) {
		t.Fatalf("consumed upload blob was not deleted")
	}
}

// A debug docket upload parses and matches but persists nothing, and still
// releases its consumed blob.
func TestUploadDocketDebugReleasesBlobWithoutPersisting(t *testing.T) {
	gdb := testutil.DB(t)
	bucket := newStubBucket()
	csid := uuid.NewString()
	ps := &stubReportParser{report: &parser.CaseReportData{
		CaseSystemID: csid,
		DocketNumber: "2:26-cv-" + csid[:8],
	}}
	p, rp := newTestPipeline(t, gdb, ps, bucket, &stubSessionProvider{}, &stubCredentialCache{})

	item := &types.ProcessingQueueItem{
		UploaderID: uuid.New(),
		CourtID:    "txed",
		UploadType: types.UploadCaseDocket,
		StorageKey: "uploads/docket.html",
		Debug:      true,
		Status:     types.StatusEnqueued,
	}
	saveUploadItem(t, gdb, item)
	bucket.objects[bucketKey(gcp.BucketCategoryUpload, item.StorageKey)] = []byte("docket report")

	tc := uploadTaskContext(t, gdb, p, item.ID, TaskUploadCaseReport,
		map[string]any{"variant": string(parser.KindDocket)})
	res, err := p.runUploadCaseReport(tc)
	if err != nil {
		t.Fatalf("runUploadCaseReport: %v", err)
	}
	if res == nil || !res.Stop {
		t.Fatalf("debug item should halt the chain, got %+v", res)
	}
	if ps.parseCalls != 1 {
		t.Fatalf("docket debug item parsed %d times, want 1", ps.parseCalls)
	}

	dbc := dbctx.Context{Ctx: context.Background()}
	stored, gerr := rp.Processing.GetByID(dbc, item.ID)
	if gerr != nil {
		t.Fatalf("reload item: %v", gerr)
	}
	if stored.Status != types.StatusSuccessful {
		t.Fatalf("status = %s, want SUCCESSFUL", stored.Status)
	}
	if !bucket.deletedUpload(item.StorageKey) {
		t.Fatalf("consumed upload blob was not deleted")
	}

	ghost, gerr := rp.Case.GetBySystemID(dbc, item.CourtID, csid)
	if gerr != nil {
		t.Fatalf("GetBySystemID: %v", gerr)
	}
	if ghost != nil {
		t.Fatalf("debug item must not persist a case, found %s", ghost.ID)
	}
}

func TestUploadDocumentDebugReleasesBlob(t *testing.T) {
	gdb := testutil.DB(t)
	bucket := newStubBucket()
	p, rp := newTestPipeline(t, gdb, &stubReportParser{}, bucket, &stubSessionProvider{}, &stubCredentialCache{})

	csid := uuid.NewString()
	courtCase := &types.Case{
		CourtID:      "txed",
		DocketNumber: "2:26-cv-" + csid[:8],
		CaseSystemID: &csid,
	}
	if err := gdb.Create(courtCase).Error; err != nil {
		t.Fatalf("seed case: %v", err)
	}
	entry := &types.CaseEntry{CaseID: courtCase.ID, EntryNumber: 1}
	if err := gdb.Create(entry).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	t.Cleanup(func() {
		gdb.Unscoped().Where("id = ?", entry.ID).Delete(&types.CaseEntry{})
		gdb.Unscoped().Where("id = ?", courtCase.ID).Delete(&types.Case{})
	})

	item := &types.ProcessingQueueItem{
		UploaderID:     uuid.New(),
		CourtID:        "txed",
		CaseSystemID:   csid,
		DocumentNumber: "1",
		UploadType:     types.UploadDocument,
		StorageKey:     "uploads/doc.pdf",
		Debug:          true,
		Status:         types.StatusEnqueued,
	}
	saveUploadItem(t, gdb, item)
	bucket.objects[bucketKey(gcp.BucketCategoryUpload, item.StorageKey)] = []byte("%PDF-1.4 test")

	tc := uploadTaskContext(t, gdb, p, item.ID, TaskUploadDocument, nil)
	res, err := p.runUploadDocument(tc)
	if err != nil {
		t.Fatalf("runUploadDocument: %v", err)
	}
	if res == nil || !res.Stop {
		t.Fatalf("debug item should halt the chain, got %+v", res)
	}

	stored, gerr := rp.Processing.GetByID(dbctx.Context{Ctx: context.Background()}, item.ID)
	if gerr != nil {
		t.Fatalf("reload item: %v", gerr)
	}
	if stored.Status != types.StatusSuccessful {
		t.Fatalf("status = %s, want SUCCESSFUL", stored.Status)
	}
	if !bucket.deletedUpload(item.StorageKey) {
		t.Fatalf("consumed upload blob was not deleted")
	}
}
