// Package ingest holds the core ingestion logic: status tracking, content
// validation, case matching, and report merging. Pipeline task bodies in
// ingest/pipeline orchestrate these pieces.
package ingest

import (
	"context"
	"time"

	"github.com/casepulse/casepulse-backend/internal/data/repos/queue"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// StatusTracker writes status transitions onto queue items. It does not
// validate transition legality; each pipeline task visits a fixed linear
// path through the state machine.
type StatusTracker struct {
	processing queue.ProcessingQueueRepo
	fetch      queue.FetchQueueRepo
	bucket     gcp.BucketService
	log        *logger.Logger
}

func NewStatusTracker(processing queue.ProcessingQueueRepo, fetch queue.FetchQueueRepo, bucket gcp.BucketService, baseLog *logger.Logger) *StatusTracker {
	return &StatusTracker{
		processing: processing,
		fetch:      fetch,
		bucket:     bucket,
		log:        baseLog.With("component", "StatusTracker"),
	}
}

// MarkProcessing overwrites the item's status and message and persists both.
func (t *StatusTracker) MarkProcessing(dbc dbctx.Context, item *types.ProcessingQueueItem, status types.Status, message string) error {
	if item == nil {
		return nil
	}
	if message != "" {
		t.log.Info("Processing queue item status",
			"item_id", item.ID,
			"status", status.String(),
			"message", message,
		)
	}
	item.Status = status
	item.ErrorMessage = message
	return t.processing.UpdateFields(dbc, item.ID, map[string]interface{}{
		"status":        status,
		"error_message": message,
	})
}

// MarkProcessingSuccessful records the terminal success state along with the
// case/entry/document rows the upload resolved to.
func (t *StatusTracker) MarkProcessingSuccessful(dbc dbctx.Context, item *types.ProcessingQueueItem, message string) error {
	if item == nil {
		return nil
	}
	if message == "" {
		message = "Successful."
	}
	t.log.Info("Processing queue item successful", "item_id", item.ID, "message", message)
	item.Status = types.StatusSuccessful
	item.ErrorMessage = message
	return t.processing.UpdateFields(dbc, item.ID, map[string]interface{}{
		"status":        types.StatusSuccessful,
		"error_message": message,
		"case_id":       item.CaseID,
		"entry_id":      item.EntryID,
		"document_id":   item.DocumentID,
	})
}

// MarkFetch overwrites the fetch item's status and message. The completion
// timestamp is stamped if and only if the status is the terminal success.
func (t *StatusTracker) MarkFetch(dbc dbctx.Context, item *types.FetchQueueItem, status types.Status, message string) error {
	if item == nil {
		return nil
	}
	if message != "" {
		t.log.Info("Fetch queue item status",
			"item_id", item.ID,
			"status", status.String(),
			"message", message,
		)
	}
	updates := map[string]interface{}{
		"status":  status,
		"message": message,
	}
	item.Status = status
	item.Message = message
	if status == types.StatusSuccessful {
		now := time.Now()
		item.DateCompleted = &now
		updates["date_completed"] = now
	}
	return t.fetch.UpdateFields(dbc, item.ID, updates)
}

// ReleaseBlob deletes the raw uploaded blob once the item is terminally
// consumed. Blobs are kept while QUEUED_FOR_RETRY so retries can re-read
// them without re-upload.
func (t *StatusTracker) ReleaseBlob(ctx context.Context, item *types.ProcessingQueueItem) {
	if item == nil || item.StorageKey == "" {
		return
	}
	if err := t.bucket.Delete(ctx, gcp.BucketCategoryUpload, item.StorageKey); err != nil {
		t.log.Warn("Failed to delete consumed upload blob",
			"item_id", item.ID,
			"storage_key", item.StorageKey,
			"error", err,
		)
	}
}
