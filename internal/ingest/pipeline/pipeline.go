// Package pipeline contains the task bodies that drive queue items to their
// terminal states, plus the Dispatcher that selects a task chain per
// upload/request type.
package pipeline

import (
	"time"

	types "github.com/casepulse/casepulse-backend/internal/domain"

	"github.com/casepulse/casepulse-backend/internal/clients/courts"
	"github.com/casepulse/casepulse-backend/internal/clients/redis"
	"github.com/casepulse/casepulse-backend/internal/data/repos"
	"github.com/casepulse/casepulse-backend/internal/ingest"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/parser"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
	"github.com/casepulse/casepulse-backend/internal/services"
)

// Task type names. Chains are expressed as ordered lists of these.
const (
	TaskUploadDocument            = "upload.document"
	TaskUploadArchive             = "upload.archive"
	TaskUploadCaseReport          = "upload.case_report"
	TaskUploadAttachmentPage      = "upload.attachment_page"
	TaskUploadAppellateAttachment = "upload.appellate_attachment_page"

	TaskFetchCase           = "fetch.case"
	TaskFetchDocument       = "fetch.document"
	TaskFetchAttachmentPage = "fetch.attachment_page"
	TaskFetchComplete       = "fetch.complete"

	TaskCaseReindex     = "case.reindex"
	TaskDocumentExtract = "document.extract"
)

// RegisterPolicies binds each task type's retry ceiling and delay schedule.
// Call once during wiring, before workers start.
func RegisterPolicies() {
	runtime.RegisterPolicy(TaskUploadDocument, runtime.RetryPolicy{MaxRetries: 2, Delay: 5 * time.Minute, Step: 10 * time.Minute})
	runtime.RegisterPolicy(TaskUploadArchive, runtime.RetryPolicy{MaxRetries: 5, Delay: 5 * time.Minute, Step: 5 * time.Minute})
	runtime.RegisterPolicy(TaskUploadCaseReport, runtime.RetryPolicy{MaxRetries: 5, Delay: 5 * time.Minute, Step: 5 * time.Minute})
	runtime.RegisterPolicy(TaskUploadAttachmentPage, runtime.RetryPolicy{MaxRetries: 3, Delay: 5 * time.Minute, Step: 5 * time.Minute})
	runtime.RegisterPolicy(TaskUploadAppellateAttachment, runtime.RetryPolicy{MaxRetries: 0})

	runtime.RegisterPolicy(TaskFetchCase, runtime.RetryPolicy{MaxRetries: 3, Delay: 5 * time.Second, Step: 5 * time.Second})
	runtime.RegisterPolicy(TaskFetchDocument, runtime.RetryPolicy{MaxRetries: 3, Delay: 5 * time.Second, Step: 5 * time.Second})
	runtime.RegisterPolicy(TaskFetchAttachmentPage, runtime.RetryPolicy{MaxRetries: 3, Delay: 5 * time.Second, Step: 5 * time.Second})
	runtime.RegisterPolicy(TaskFetchComplete, runtime.RetryPolicy{MaxRetries: 0})

	runtime.RegisterPolicy(TaskCaseReindex, runtime.RetryPolicy{MaxRetries: 3, Delay: 30 * time.Second, Step: 30 * time.Second})
	runtime.RegisterPolicy(TaskDocumentExtract, runtime.RetryPolicy{MaxRetries: 3, Delay: 30 * time.Second, Step: 30 * time.Second})
}

// Pipeline bundles every collaborator the task bodies need. Constructed once
// at startup with injected interfaces; nothing here is package-global.
type Pipeline struct {
	repos      *repos.Repos
	tracker    *ingest.StatusTracker
	matcher    *ingest.CaseMatcher
	merger     *ingest.Merger
	parser     parser.ReportParser
	bucket     gcp.BucketService
	sessions   courts.SessionProvider
	creds      redis.CredentialCache
	search     redis.SearchBus
	alerts     services.AlertEnqueuer
	extractor  services.TextExtractor
	dispatcher *Dispatcher
	log        *logger.Logger
}

func New(
	rp *repos.Repos,
	tracker *ingest.StatusTracker,
	matcher *ingest.CaseMatcher,
	merger *ingest.Merger,
	reportParser parser.ReportParser,
	bucket gcp.BucketService,
	sessions courts.SessionProvider,
	creds redis.CredentialCache,
	search redis.SearchBus,
	alerts services.AlertEnqueuer,
	extractor services.TextExtractor,
	baseLog *logger.Logger,
) *Pipeline {
	p := &Pipeline{
		repos:     rp,
		tracker:   tracker,
		matcher:   matcher,
		merger:    merger,
		parser:    reportParser,
		bucket:    bucket,
		sessions:  sessions,
		creds:     creds,
		search:    search,
		alerts:    alerts,
		extractor: extractor,
		log:       baseLog.With("component", "Pipeline"),
	}
	p.dispatcher = NewDispatcher(rp, baseLog)
	return p
}

func (p *Pipeline) Dispatcher() *Dispatcher { return p.dispatcher }

// RegisterAll binds every task handler into the worker registry.
func (p *Pipeline) RegisterAll(reg *runtime.Registry) error {
	handlers := []runtime.Handler{
		handlerFunc{TaskUploadDocument, p.runUploadDocument},
		handlerFunc{TaskUploadArchive, p.runUploadArchive},
		handlerFunc{TaskUploadCaseReport, p.runUploadCaseReport},
		handlerFunc{TaskUploadAttachmentPage, p.runUploadAttachmentPage},
		handlerFunc{TaskUploadAppellateAttachment, p.runUploadAppellateAttachment},
		handlerFunc{TaskFetchCase, p.runFetchCase},
		handlerFunc{TaskFetchDocument, p.runFetchDocument},
		handlerFunc{TaskFetchAttachmentPage, p.runFetchAttachmentPage},
		handlerFunc{TaskFetchComplete, p.runFetchComplete},
		handlerFunc{TaskCaseReindex, p.runCaseReindex},
		handlerFunc{TaskDocumentExtract, p.runDocumentExtract},
	}
	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}

type handlerFunc struct {
	taskType string
	run      func(tc *runtime.TaskContext) (*runtime.StepResult, error)
}

func (h handlerFunc) Type() string { return h.taskType }

func (h handlerFunc) Run(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	return h.run(tc)
}

// retryOrFailProcessing applies the shared retry-or-fail policy to a
// transient error on an upload item: exhausted retries (or a debug item,
// which never waits) fail terminally, otherwise the item parks in
// QUEUED_FOR_RETRY and the task reschedules.
func (p *Pipeline) retryOrFailProcessing(tc *runtime.TaskContext, dbc dbctx.Context, item *types.ProcessingQueueItem, cause error) (*runtime.StepResult, error) {
	if tc.RetriesExhausted() || item.Debug {
		_ = p.tracker.MarkProcessing(dbc, item, types.StatusFailed, cause.Error())
		return runtime.Halt(), nil
	}
	_ = p.tracker.MarkProcessing(dbc, item, types.StatusQueuedForRetry, cause.Error())
	return nil, runtime.Retry(cause)
}

func (p *Pipeline) retryOrFailFetch(tc *runtime.TaskContext, dbc dbctx.Context, item *types.FetchQueueItem, cause error) (*runtime.StepResult, error) {
	if tc.RetriesExhausted() {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, cause.Error())
		return runtime.Halt(), nil
	}
	_ = p.tracker.MarkFetch(dbc, item, types.StatusQueuedForRetry, cause.Error())
	return nil, runtime.Retry(cause)
}
