package pipeline

import (
	"fmt"

	"github.com/casepulse/casepulse-backend/internal/data/repos"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/parser"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// Dispatcher maps a queue item's declared type to the task chain that
// processes it, and enqueues the first task.
type Dispatcher struct {
	repos *repos.Repos
	log   *logger.Logger
}

func NewDispatcher(rp *repos.Repos, baseLog *logger.Logger) *Dispatcher {
	return &Dispatcher{
		repos: rp,
		log:   baseLog.With("component", "Dispatcher"),
	}
}

// Full docket uploads get a deeper retry ceiling than the other report
// kinds.
var reportMaxAttempts = map[types.UploadType]int{
	types.UploadCaseDocket:        6,
	types.UploadCaseDocketHistory: 4,
	types.UploadAppellateDocket:   4,
	types.UploadClaimsRegister:    4,
}

var reportVariants = map[types.UploadType]parser.ReportKind{
	types.UploadCaseDocket:        parser.KindDocket,
	types.UploadCaseDocketHistory: parser.KindDocketHistory,
	types.UploadAppellateDocket:   parser.KindAppellate,
	types.UploadClaimsRegister:    parser.KindClaimsRegister,
}

// DispatchUpload schedules the pipeline for one processing queue item.
func (d *Dispatcher) DispatchUpload(dbc dbctx.Context, item *types.ProcessingQueueItem) (*types.WorkTask, error) {
	if item == nil {
		return nil, fmt.Errorf("queue item required")
	}

	spec := runtime.TaskSpec{
		QueueKind:   types.QueueKindProcessing,
		QueueItemID: item.ID,
	}

	switch item.UploadType {
	case types.UploadCaseDocket, types.UploadCaseDocketHistory,
		types.UploadAppellateDocket, types.UploadClaimsRegister:
		spec.Type = TaskUploadCaseReport
		spec.Chain = []string{TaskCaseReindex}
		spec.Payload = map[string]any{"variant": string(reportVariants[item.UploadType])}
		spec.MaxAttempts = reportMaxAttempts[item.UploadType]
	case types.UploadDocument:
		spec.Type = TaskUploadDocument
		spec.Chain = []string{TaskDocumentExtract}
	case types.UploadAttachmentPage:
		spec.Type = TaskUploadAttachmentPage
	case types.UploadAppellateAttachmentPage:
		spec.Type = TaskUploadAppellateAttachment
	case types.UploadDocumentArchive:
		spec.Type = TaskUploadArchive
	default:
		return nil, fmt.Errorf("unknown upload type: %d", item.UploadType)
	}

	d.log.Debug("Dispatching upload",
		"item_id", item.ID,
		"upload_type", item.UploadType.String(),
		"task_type", spec.Type,
	)
	return runtime.Enqueue(dbc, d.repos.WorkTask, spec)
}

// DispatchFetch schedules the pipeline for one fetch queue item.
func (d *Dispatcher) DispatchFetch(dbc dbctx.Context, item *types.FetchQueueItem) (*types.WorkTask, error) {
	if item == nil {
		return nil, fmt.Errorf("queue item required")
	}

	spec := runtime.TaskSpec{
		QueueKind:   types.QueueKindFetch,
		QueueItemID: item.ID,
	}

	switch item.Type {
	case types.FetchCase:
		spec.Type = TaskFetchCase
		spec.Chain = []string{TaskCaseReindex, TaskFetchComplete}
	case types.FetchDocument:
		spec.Type = TaskFetchDocument
		spec.Chain = []string{TaskDocumentExtract, TaskFetchComplete}
	case types.FetchAttachmentPage:
		spec.Type = TaskFetchAttachmentPage
	default:
		return nil, fmt.Errorf("unknown fetch request type: %d", item.Type)
	}

	d.log.Debug("Dispatching fetch",
		"item_id", item.ID,
		"request_type", item.Type.String(),
		"task_type", spec.Type,
	)
	return runtime.Enqueue(dbc, d.repos.WorkTask, spec)
}
