package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/casepulse/casepulse-backend/internal/clients/courts"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/ingest"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/parser"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
)

// openSession builds a court session from the requesting user's cached
// credentials. A missing credential is a terminal failure; retrying cannot
// conjure one.
func (p *Pipeline) openSession(tc *runtime.TaskContext, dbc dbctx.Context, item *types.FetchQueueItem) (courts.Session, *runtime.StepResult, error) {
	creds, err := p.creds.Get(tc.Ctx, item.UserID)
	if err != nil {
		res, retryErr := p.retryOrFailFetch(tc, dbc, item, fmt.Errorf("credential lookup: %w", err))
		return nil, res, retryErr
	}
	if creds == nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed,
			"No cached court session for user; log in and retry the fetch.")
		return nil, runtime.Halt(), nil
	}
	session, err := p.sessions.NewSession(creds)
	if err != nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, "Court session rejected: "+err.Error())
		return nil, runtime.Halt(), nil
	}
	return session, nil, nil
}

// runFetchCase retrieves a full case report live and merges it.
func (p *Pipeline) runFetchCase(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	started := time.Now()
	dbc := dbctx.Context{Ctx: tc.Ctx}

	item, err := p.repos.Fetch.GetByID(dbc, tc.QueueItemID())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("fetch queue item %s not found", tc.QueueItemID())
	}
	_ = p.tracker.MarkFetch(dbc, item, types.StatusInProgress, "")

	session, res, err := p.openSession(tc, dbc, item)
	if session == nil {
		return res, err
	}

	var courtCase *types.Case
	if item.CaseID != nil {
		courtCase, err = p.repos.Case.GetByID(dbc, *item.CaseID)
		if err != nil {
			return nil, err
		}
	}

	courtID := item.CourtID
	docketNumber := item.DocketNumber
	if courtCase != nil {
		courtID = courtCase.CourtID
		if docketNumber == "" {
			docketNumber = courtCase.DocketNumber
		}
	}

	caseSystemID := ""
	if courtCase != nil && courtCase.CaseSystemID != nil {
		caseSystemID = *courtCase.CaseSystemID
	}
	if caseSystemID == "" {
		caseSystemID, err = session.LookupCaseID(tc.Ctx, courtID, docketNumber)
		if errors.Is(err, courts.ErrNotFound) {
			// Not found or sealed: fail without consuming further retries.
			_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed,
				"Case not found in the court records system (it may be sealed).")
			return runtime.Halt(), nil
		}
		if err != nil {
			// Auth failures park as retryable: an externally refreshed
			// credential can rescue a later attempt.
			return p.retryOrFailFetch(tc, dbc, item, fmt.Errorf("case id lookup: %w", err))
		}
	}

	text, err := session.FetchCaseReport(tc.Ctx, courts.CaseReportRequest{
		CourtID:       courtID,
		CaseSystemID:  caseSystemID,
		EntryNumStart: item.EntryNumStart,
		EntryNumEnd:   item.EntryNumEnd,
		DateStart:     item.DateStart,
		DateEnd:       item.DateEnd,
		ShowParties:   item.ShowParties,
	})
	if err != nil {
		return p.retryOrFailFetch(tc, dbc, item, fmt.Errorf("report fetch: %w", err))
	}

	report, err := p.parser.Parse(parser.KindDocket, courtID, text)
	if err != nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, "Parser error: "+err.Error())
		return runtime.Halt(), nil
	}
	if report == nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusInvalidContent,
			"Unable to parse the retrieved report.")
		return runtime.Halt(), nil
	}

	if courtCase == nil {
		courtCase, err = p.matcher.FindOrCreate(dbc, courtID, caseSystemID, report.DocketNumber)
		if err != nil {
			return nil, err
		}
	}
	courtCase.AddSource(types.SourceFetch)
	p.merger.MergeCaseFields(courtCase, report)
	if courtCase.CaseSystemID == nil && caseSystemID != "" {
		courtCase.CaseSystemID = &caseSystemID
	}

	if courtCase.ID == uuid.Nil {
		err = p.repos.Case.Create(dbc, courtCase)
	} else {
		err = p.repos.Case.Save(dbc, courtCase)
	}
	if err != nil {
		return p.retryOrFailFetch(tc, dbc, item, fmt.Errorf("case save: %w", err))
	}

	p.archiveReportText(tc, dbc, courtCase, types.UploadCaseDocket, []byte(text))

	entryRes, err := p.merger.MergeEntries(dbc, courtCase, report.Entries)
	if err != nil {
		return nil, err
	}
	if item.ShowParties {
		if err := p.merger.MergeParties(dbc, courtCase, report.Parties); err != nil {
			return nil, err
		}
	}

	if entryRes.ContentUpdated {
		if err := p.alerts.ScheduleCaseAlert(tc.Ctx, courtCase.ID, started); err != nil {
			p.log.Warn("Alert scheduling failed", "case_id", courtCase.ID, "error", err)
		}
	}

	caseID := courtCase.ID
	if item.CaseID == nil {
		item.CaseID = &caseID
		_ = p.repos.Fetch.UpdateFields(dbc, item.ID, map[string]interface{}{"case_id": caseID})
	}
	return runtime.Continue(map[string]any{
		"case_id":         caseID.String(),
		"content_updated": entryRes.ContentUpdated,
	}), nil
}

// runFetchDocument downloads one filed document. Short-circuits with no
// network call when the document is already available.
func (p *Pipeline) runFetchDocument(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	dbc := dbctx.Context{Ctx: tc.Ctx}
	item, err := p.repos.Fetch.GetByID(dbc, tc.QueueItemID())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("fetch queue item %s not found", tc.QueueItemID())
	}
	_ = p.tracker.MarkFetch(dbc, item, types.StatusInProgress, "")

	if item.DocumentID == nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, "Fetch request names no document.")
		return runtime.Halt(), nil
	}
	doc, err := p.repos.Document.GetByID(dbc, *item.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, "Document not found.")
		return runtime.Halt(), nil
	}

	if doc.IsAvailable {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusSuccessful, "Document already available.")
		return runtime.Halt(), nil
	}
	if doc.DocSystemID == nil || *doc.DocSystemID == "" {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed,
			"Document has no known identifier in the court records system.")
		return runtime.Halt(), nil
	}

	courtCase, _, err := p.resolveOwners(dbc, doc)
	if err != nil {
		return nil, err
	}
	if courtCase == nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, "Document has no resolvable case.")
		return runtime.Halt(), nil
	}
	caseSystemID := ""
	if courtCase.CaseSystemID != nil {
		caseSystemID = *courtCase.CaseSystemID
	}

	session, res, err := p.openSession(tc, dbc, item)
	if session == nil {
		return res, err
	}

	data, err := session.FetchDocument(tc.Ctx, courtCase.CourtID, caseSystemID, *doc.DocSystemID)
	if errors.Is(err, courts.ErrNotFound) {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed,
			"Document not found in the court records system.")
		return runtime.Halt(), nil
	}
	if err != nil {
		return p.retryOrFailFetch(tc, dbc, item, fmt.Errorf("document fetch: %w", err))
	}

	storageKey := fmt.Sprintf("documents/%s.pdf", doc.ID)
	if err := p.bucket.Upload(tc.Ctx, gcp.BucketCategoryDocument, storageKey, bytes.NewReader(data)); err != nil {
		return p.retryOrFailFetch(tc, dbc, item, fmt.Errorf("storing fetched document: %w", err))
	}

	now := time.Now()
	size := int64(len(data))
	updates := map[string]interface{}{
		"sha1":         sha1Hex(data),
		"file_size":    size,
		"storage_key":  storageKey,
		"is_available": true,
		"date_upload":  now,
		"plain_text":   "",
		"extracted_at": nil,
	}
	if pages, pcErr := api.PageCount(bytes.NewReader(data), nil); pcErr == nil {
		updates["page_count"] = pages
	} else {
		p.log.Warn("Page count failed", "document_id", doc.ID, "error", pcErr)
	}
	if err := p.repos.Document.UpdateFields(dbc, doc.ID, updates); err != nil {
		return nil, err
	}

	if err := p.search.NotifyDocumentChanged(tc.Ctx, doc.ID); err != nil {
		p.log.Warn("Search notify failed", "document_id", doc.ID, "error", err)
	}
	return runtime.Continue(map[string]any{"document_id": doc.ID.String()}), nil
}

// runFetchAttachmentPage retrieves an attachment menu live. An unknown
// document identifier here needs manual correction, so it parks as
// NEEDS_INFO rather than failing retryably.
func (p *Pipeline) runFetchAttachmentPage(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	dbc := dbctx.Context{Ctx: tc.Ctx}
	item, err := p.repos.Fetch.GetByID(dbc, tc.QueueItemID())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("fetch queue item %s not found", tc.QueueItemID())
	}
	_ = p.tracker.MarkFetch(dbc, item, types.StatusInProgress, "")

	if item.DocumentID == nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, "Fetch request names no document.")
		return runtime.Halt(), nil
	}
	doc, err := p.repos.Document.GetByID(dbc, *item.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, "Document not found.")
		return runtime.Halt(), nil
	}
	if doc.DocSystemID == nil || *doc.DocSystemID == "" {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusNeedsInfo,
			"Unknown document identifier; manual correction required.")
		return runtime.Halt(), nil
	}

	courtCase, _, err := p.resolveOwners(dbc, doc)
	if err != nil {
		return nil, err
	}
	if courtCase == nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, "Document has no resolvable case.")
		return runtime.Halt(), nil
	}

	session, res, err := p.openSession(tc, dbc, item)
	if session == nil {
		return res, err
	}

	text, err := session.FetchAttachmentPage(tc.Ctx, courtCase.CourtID, *doc.DocSystemID)
	if err != nil {
		return p.retryOrFailFetch(tc, dbc, item, fmt.Errorf("attachment page fetch: %w", err))
	}

	page, err := p.parser.ParseAttachmentPage(courtCase.CourtID, text)
	if err != nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusFailed, "Parser error: "+err.Error())
		return runtime.Halt(), nil
	}
	if page == nil {
		_ = p.tracker.MarkFetch(dbc, item, types.StatusInvalidContent,
			"Unable to parse the retrieved attachment page.")
		return runtime.Halt(), nil
	}

	if _, err := p.merger.MergeAttachmentPage(dbc, courtCase.CourtID, page); err != nil {
		if errors.Is(err, ingest.ErrMainDocumentNotFound) {
			return p.retryOrFailFetch(tc, dbc, item, err)
		}
		return nil, err
	}

	_ = p.tracker.MarkFetch(dbc, item, types.StatusSuccessful, "Attachment page merged.")
	return runtime.Continue(nil), nil
}

// runFetchComplete is the terminal chain step for multi-step fetches.
func (p *Pipeline) runFetchComplete(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	dbc := dbctx.Context{Ctx: tc.Ctx}
	item, err := p.repos.Fetch.GetByID(dbc, tc.QueueItemID())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("fetch queue item %s not found", tc.QueueItemID())
	}
	_ = p.tracker.MarkFetch(dbc, item, types.StatusSuccessful, "Fetch completed.")
	return runtime.Halt(), nil
}
