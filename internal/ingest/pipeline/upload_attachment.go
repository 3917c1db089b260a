package pipeline

import (
	"errors"
	"fmt"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/ingest"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
)

// runUploadAttachmentPage merges an uploaded attachment menu beneath its
// main document. Arriving before the main document is a retryable
// condition; a concurrent docket upload may create it.
func (p *Pipeline) runUploadAttachmentPage(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	dbc := dbctx.Context{Ctx: tc.Ctx}
	item, err := p.repos.Processing.GetByID(dbc, tc.QueueItemID())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("processing queue item %s not found", tc.QueueItemID())
	}
	_ = p.tracker.MarkProcessing(dbc, item, types.StatusInProgress, "")

	// Old client versions submit the literal strings "undefined" or "null"
	// when they have no case identifier.
	if item.CaseSystemID == "undefined" || item.CaseSystemID == "null" {
		item.CaseSystemID = ""
		_ = p.repos.Processing.UpdateFields(dbc, item.ID, map[string]interface{}{
			"case_system_id": "",
		})
	}

	data, err := p.bucket.ReadAll(tc.Ctx, gcp.BucketCategoryUpload, item.StorageKey)
	if err != nil {
		return p.retryOrFailProcessing(tc, dbc, item, fmt.Errorf("reading uploaded attachment page: %w", err))
	}
	text, err := ingest.DecodeText(data)
	if err != nil {
		return p.retryOrFailProcessing(tc, dbc, item, err)
	}

	page, err := p.parser.ParseAttachmentPage(item.CourtID, text)
	if err != nil {
		_ = p.tracker.MarkProcessing(dbc, item, types.StatusFailed, "Parser error: "+err.Error())
		return runtime.Halt(), nil
	}
	if page == nil {
		_ = p.tracker.MarkProcessing(dbc, item, types.StatusInvalidContent,
			"Unable to parse: no attachment data found in upload.")
		return runtime.Halt(), nil
	}

	// Repair a missing case id from the page itself, so later merges can
	// scope the lookup to the right case.
	if item.CaseSystemID == "" && page.CaseSystemID != "" {
		item.CaseSystemID = page.CaseSystemID
		_ = p.repos.Processing.UpdateFields(dbc, item.ID, map[string]interface{}{
			"case_system_id": page.CaseSystemID,
		})
	}

	if item.Debug {
		_ = p.tracker.MarkProcessingSuccessful(dbc, item, "Successful (debug: no persistence).")
		p.tracker.ReleaseBlob(tc.Ctx, item)
		return runtime.Halt(), nil
	}

	mainDoc, err := p.merger.MergeAttachmentPage(dbc, item.CourtID, page)
	if errors.Is(err, ingest.ErrMainDocumentNotFound) {
		return p.retryOrFailProcessing(tc, dbc, item, err)
	}
	if err != nil {
		return nil, err
	}

	entryID := mainDoc.EntryID
	docID := mainDoc.ID
	item.EntryID = &entryID
	item.DocumentID = &docID
	_ = p.tracker.MarkProcessingSuccessful(dbc, item, "")
	p.tracker.ReleaseBlob(tc.Ctx, item)

	if err := p.search.NotifyDocumentChanged(tc.Ctx, mainDoc.ID); err != nil {
		p.log.Warn("Search notify failed", "document_id", mainDoc.ID, "error", err)
	}
	return runtime.Continue(map[string]any{"document_id": docID.String()}), nil
}

// runUploadAppellateAttachment rejects appellate attachment pages, which the
// parser does not yet support.
func (p *Pipeline) runUploadAppellateAttachment(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	dbc := dbctx.Context{Ctx: tc.Ctx}
	item, err := p.repos.Processing.GetByID(dbc, tc.QueueItemID())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("processing queue item %s not found", tc.QueueItemID())
	}
	_ = p.tracker.MarkProcessing(dbc, item, types.StatusFailed,
		"Appellate attachment pages are not yet supported.")
	p.tracker.ReleaseBlob(tc.Ctx, item)
	return runtime.Halt(), nil
}
