package pipeline

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/casepulse/casepulse-backend/internal/data/repos"
	"github.com/casepulse/casepulse-backend/internal/data/repos/testutil"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
)

func TestDispatchUploadCaseReport(t *testing.T) {
	RegisterPolicies()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	rp := repos.New(gdb, testutil.Logger(t))
	d := NewDispatcher(rp, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	item := &types.ProcessingQueueItem{
		UploaderID: uuid.New(),
		CourtID:    "txed",
		UploadType: types.UploadCaseDocket,
		Status:     types.StatusEnqueued,
	}
	if err := tx.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	task, err := d.DispatchUpload(dbc, item)
	if err != nil {
		t.Fatalf("DispatchUpload: %v", err)
	}
	if task.TaskType != TaskUploadCaseReport {
		t.Fatalf("task type = %q, want %q", task.TaskType, TaskUploadCaseReport)
	}
	if task.QueueKind != types.QueueKindProcessing || task.QueueItemID != item.ID {
		t.Fatalf("task queue binding = %s/%s", task.QueueKind, task.QueueItemID)
	}
	if task.MaxAttempts != 6 {
		t.Fatalf("docket uploads allow 6 attempts, got %d", task.MaxAttempts)
	}

	chain, err := runtime.DecodeChain(task)
	if err != nil {
		t.Fatalf("DecodeChain: %v", err)
	}
	if len(chain) != 1 || chain[0] != TaskCaseReindex {
		t.Fatalf("chain = %v, want [%s]", chain, TaskCaseReindex)
	}

	stored, err := rp.WorkTask.GetByID(dbc, task.ID)
	if err != nil || stored == nil {
		t.Fatalf("task row not persisted: (%+v, %v)", stored, err)
	}
	if stored.Status != types.TaskQueued {
		t.Fatalf("persisted status = %q, want queued", stored.Status)
	}
}

func TestDispatchUploadVariants(t *testing.T) {
	RegisterPolicies()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	rp := repos.New(gdb, testutil.Logger(t))
	d := NewDispatcher(rp, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	tests := []struct {
		uploadType  types.UploadType
		taskType    string
		chain       []string
		maxAttempts int
	}{
		{types.UploadDocument, TaskUploadDocument, []string{TaskDocumentExtract}, 3},
		{types.UploadAttachmentPage, TaskUploadAttachmentPage, nil, 4},
		{types.UploadAppellateAttachmentPage, TaskUploadAppellateAttachment, nil, 1},
		{types.UploadDocumentArchive, TaskUploadArchive, nil, 6},
		{types.UploadCaseDocketHistory, TaskUploadCaseReport, []string{TaskCaseReindex}, 4},
		{types.UploadAppellateDocket, TaskUploadCaseReport, []string{TaskCaseReindex}, 4},
		{types.UploadClaimsRegister, TaskUploadCaseReport, []string{TaskCaseReindex}, 4},
	}
	for _, tt := range tests {
		item := &types.ProcessingQueueItem{
			UploaderID: uuid.New(),
			CourtID:    "txed",
			UploadType: tt.uploadType,
			Status:     types.StatusEnqueued,
		}
		if err := tx.Create(item).Error; err != nil {
			t.Fatalf("%s: seed item: %v", tt.uploadType, err)
		}
		task, err := d.DispatchUpload(dbc, item)
		if err != nil {
			t.Fatalf("%s: DispatchUpload: %v", tt.uploadType, err)
		}
		if task.TaskType != tt.taskType {
			t.Fatalf("%s: task type = %q, want %q", tt.uploadType, task.TaskType, tt.taskType)
		}
		if task.MaxAttempts != tt.maxAttempts {
			t.Fatalf("%s: MaxAttempts = %d, want %d", tt.uploadType, task.MaxAttempts, tt.maxAttempts)
		}
		chain, err := runtime.DecodeChain(task)
		if err != nil {
			t.Fatalf("%s: DecodeChain: %v", tt.uploadType, err)
		}
		if len(chain) != len(tt.chain) {
			t.Fatalf("%s: chain = %v, want %v", tt.uploadType, chain, tt.chain)
		}
		for i := range tt.chain {
			if chain[i] != tt.chain[i] {
				t.Fatalf("%s: chain = %v, want %v", tt.uploadType, chain, tt.chain)
			}
		}
	}

	unknown := &types.ProcessingQueueItem{
		UploaderID: uuid.New(),
		CourtID:    "txed",
		UploadType: types.UploadType(99),
		Status:     types.StatusEnqueued,
	}
	if err := tx.Create(unknown).Error; err != nil {
		t.Fatalf("seed unknown item: %v", err)
	}
	if _, err := d.DispatchUpload(dbc, unknown); err == nil {
		t.Fatalf("unknown upload type must not dispatch")
	}
}

func TestDispatchFetch(t *testing.T) {
	RegisterPolicies()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	rp := repos.New(gdb, testutil.Logger(t))
	d := NewDispatcher(rp, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	tests := []struct {
		requestType types.RequestType
		taskType    string
		chain       []string
	}{
		{types.FetchCase, TaskFetchCase, []string{TaskCaseReindex, TaskFetchComplete}},
		{types.FetchDocument, TaskFetchDocument, []string{TaskDocumentExtract, TaskFetchComplete}},
		{types.FetchAttachmentPage, TaskFetchAttachmentPage, nil},
	}
	for _, tt := range tests {
		item := &types.FetchQueueItem{
			UserID:       uuid.New(),
			Type:         tt.requestType,
			CourtID:      "txed",
			DocketNumber: "2:20-cv-00123",
			Status:       types.StatusEnqueued,
		}
		if err := tx.Create(item).Error; err != nil {
			t.Fatalf("%s: seed item: %v", tt.requestType, err)
		}
		task, err := d.DispatchFetch(dbc, item)
		if err != nil {
			t.Fatalf("%s: DispatchFetch: %v", tt.requestType, err)
		}
		if task.TaskType != tt.taskType {
			t.Fatalf("%s: task type = %q, want %q", tt.requestType, task.TaskType, tt.taskType)
		}
		if task.QueueKind != types.QueueKindFetch {
			t.Fatalf("%s: queue kind = %q", tt.requestType, task.QueueKind)
		}
		chain, err := runtime.DecodeChain(task)
		if err != nil {
			t.Fatalf("%s: DecodeChain: %v", tt.requestType, err)
		}
		if len(chain) != len(tt.chain) {
			t.Fatalf("%s: chain = %v, want %v", tt.requestType, chain, tt.chain)
		}
		for i := range tt.chain {
			if chain[i] != tt.chain[i] {
				t.Fatalf("%s: chain = %v, want %v", tt.requestType, chain, tt.chain)
			}
		}
	}
}
