package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casepulse/casepulse-backend/internal/data/dberr"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/ingest"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/parser"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
)

// historyReportMarker appears only in history reports. Older clients
// submitted them under the docket upload type.
const historyReportMarker = "History/Documents"

// runUploadCaseReport is the parameterized pipeline for the four case-report
// kinds. The payload's variant tag selects the parser entry point and which
// merge steps run.
func (p *Pipeline) runUploadCaseReport(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	started := time.Now()
	dbc := dbctx.Context{Ctx: tc.Ctx}

	item, err := p.repos.Processing.GetByID(dbc, tc.QueueItemID())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("processing queue item %s not found", tc.QueueItemID())
	}
	_ = p.tracker.MarkProcessing(dbc, item, types.StatusInProgress, "")

	variantRaw, _ := tc.PayloadString("variant")
	variant := parser.ReportKind(variantRaw)

	data, err := p.bucket.ReadAll(tc.Ctx, gcp.BucketCategoryUpload, item.StorageKey)
	if err != nil {
		return p.retryOrFailProcessing(tc, dbc, item, fmt.Errorf("reading uploaded report: %w", err))
	}
	text, err := ingest.DecodeText(data)
	if err != nil {
		// The upload may be fine and the read corrupt; decode failures are
		// processing errors, not content errors.
		return p.retryOrFailProcessing(tc, dbc, item, err)
	}

	// Older clients uploaded history reports as dockets.
	if variant == parser.KindDocket && strings.Contains(text, historyReportMarker) {
		return p.reclassifyAsHistory(dbc, item)
	}

	// Claims registers have no debug-mode parse path; a debug item is done
	// as soon as the upload is readable.
	if item.Debug && variant == parser.KindClaimsRegister {
		_ = p.tracker.MarkProcessingSuccessful(dbc, item, "Successful (debug: no persistence).")
		p.tracker.ReleaseBlob(tc.Ctx, item)
		return runtime.Halt(), nil
	}

	report, err := p.parser.Parse(variant, item.CourtID, text)
	if err != nil {
		_ = p.tracker.MarkProcessing(dbc, item, types.StatusFailed, "Parser error: "+err.Error())
		return runtime.Halt(), nil
	}
	if report == nil {
		_ = p.tracker.MarkProcessing(dbc, item, types.StatusInvalidContent,
			"Unable to parse: no usable data found in upload.")
		return runtime.Halt(), nil
	}

	caseSystemID := item.CaseSystemID
	if caseSystemID == "" {
		caseSystemID = report.CaseSystemID
	}
	courtCase, err := p.matcher.FindOrCreate(dbc, item.CourtID, caseSystemID, report.DocketNumber)
	if err != nil {
		return nil, err
	}
	courtCase.AddSource(types.SourceUpload)
	p.merger.MergeCaseFields(courtCase, report)

	if item.Debug {
		_ = p.tracker.MarkProcessingSuccessful(dbc, item, "Successful (debug: no persistence).")
		p.tracker.ReleaseBlob(tc.Ctx, item)
		return runtime.Halt(), nil
	}

	if res, err := p.saveCaseWithRaceRetry(tc, dbc, item, courtCase); res != nil || err != nil {
		return res, err
	}

	p.archiveReportText(tc, dbc, courtCase, item.UploadType, data)

	contentUpdated := false
	var createdDocs []*types.CaseDocument

	switch variant {
	case parser.KindClaimsRegister:
		claimRes, err := p.merger.MergeClaims(dbc, courtCase, report.Claims)
		if err != nil {
			return nil, err
		}
		contentUpdated = claimRes.ContentUpdated
	default:
		if variant == parser.KindAppellate {
			if err := p.merger.MergeOriginatingCourt(dbc, courtCase, report.Originating); err != nil {
				return nil, err
			}
		}
		entryRes, err := p.merger.MergeEntries(dbc, courtCase, report.Entries)
		if err != nil {
			return nil, err
		}
		contentUpdated = entryRes.ContentUpdated
		createdDocs = entryRes.CreatedDocuments

		if variant == parser.KindDocket || variant == parser.KindAppellate {
			if err := p.merger.MergeParties(dbc, courtCase, report.Parties); err != nil {
				return nil, err
			}
		}
		if err := p.reprocessOrphanAttachmentPages(dbc, item.CourtID, createdDocs); err != nil {
			p.log.Warn("Orphan attachment reprocessing failed", "case_id", courtCase.ID, "error", err)
		}
	}

	if contentUpdated {
		if err := p.alerts.ScheduleCaseAlert(tc.Ctx, courtCase.ID, started); err != nil {
			p.log.Warn("Alert scheduling failed", "case_id", courtCase.ID, "error", err)
		}
	}

	caseID := courtCase.ID
	item.CaseID = &caseID
	_ = p.tracker.MarkProcessingSuccessful(dbc, item, "")
	p.tracker.ReleaseBlob(tc.Ctx, item)

	return runtime.Continue(map[string]any{
		"case_id":         caseID.String(),
		"content_updated": contentUpdated,
	}), nil
}

// reclassifyAsHistory redispatches a mislabeled docket upload under the
// history type and truncates the current chain.
func (p *Pipeline) reclassifyAsHistory(dbc dbctx.Context, item *types.ProcessingQueueItem) (*runtime.StepResult, error) {
	item.UploadType = types.UploadCaseDocketHistory
	if err := p.repos.Processing.UpdateFields(dbc, item.ID, map[string]interface{}{
		"upload_type": types.UploadCaseDocketHistory,
		"status":      types.StatusEnqueued,
	}); err != nil {
		return nil, err
	}
	item.Status = types.StatusEnqueued
	if _, err := p.dispatcher.DispatchUpload(dbc, item); err != nil {
		return nil, err
	}
	p.log.Info("Reclassified docket upload as history report", "item_id", item.ID)
	return runtime.Halt(), nil
}

// saveCaseWithRaceRetry persists the case. Losing a unique-key race against
// a concurrent ingestion parks the item for retry; exhaustion fails it. A
// non-nil result or error means the caller must stop.
func (p *Pipeline) saveCaseWithRaceRetry(tc *runtime.TaskContext, dbc dbctx.Context, item *types.ProcessingQueueItem, courtCase *types.Case) (*runtime.StepResult, error) {
	var err error
	if courtCase.ID == uuid.Nil {
		err = p.repos.Case.Create(dbc, courtCase)
	} else {
		err = p.repos.Case.Save(dbc, courtCase)
	}
	if err == nil {
		return nil, nil
	}
	if dberr.IsUniqueViolation(err) || dberr.IsRetryable(err) {
		res, retryErr := p.retryOrFailProcessing(tc, dbc, item, fmt.Errorf("case save conflict: %w", err))
		if res != nil {
			p.tracker.ReleaseBlob(tc.Ctx, item)
		}
		return res, retryErr
	}
	return nil, err
}

// archiveReportText keeps the raw report as an immutable artifact for
// future reprocessing. Failures are logged, not fatal.
func (p *Pipeline) archiveReportText(tc *runtime.TaskContext, dbc dbctx.Context, courtCase *types.Case, uploadType types.UploadType, data []byte) {
	key := fmt.Sprintf("reports/%s/%s.txt", courtCase.ID, uuid.New())
	if err := p.bucket.Upload(tc.Ctx, gcp.BucketCategoryReport, key, strings.NewReader(string(data))); err != nil {
		p.log.Warn("Report archive upload failed", "case_id", courtCase.ID, "error", err)
		return
	}
	if err := p.repos.ReportFile.Create(dbc, &types.CaseReportFile{
		CaseID:     courtCase.ID,
		UploadType: int16(uploadType),
		StorageKey: key,
	}); err != nil {
		p.log.Warn("Report archive record failed", "case_id", courtCase.ID, "error", err)
	}
}

// reprocessOrphanAttachmentPages replays attachment-page uploads that failed
// before their main document existed, now that the merge created it.
func (p *Pipeline) reprocessOrphanAttachmentPages(dbc dbctx.Context, courtID string, createdDocs []*types.CaseDocument) error {
	ids := make([]string, 0, len(createdDocs))
	for _, doc := range createdDocs {
		if doc.DocSystemID != nil && *doc.DocSystemID != "" {
			ids = append(ids, *doc.DocSystemID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	orphans, err := p.repos.Processing.ListFailedAttachmentPages(dbc, courtID, ids)
	if err != nil {
		return err
	}
	for _, orphan := range orphans {
		if err := p.tracker.MarkProcessing(dbc, orphan, types.StatusEnqueued, ""); err != nil {
			return err
		}
		if _, err := p.dispatcher.DispatchUpload(dbc, orphan); err != nil {
			return err
		}
	}
	return nil
}
