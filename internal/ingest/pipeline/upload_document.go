package pipeline

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/casepulse/casepulse-backend/internal/data/dberr"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
)

var errEntryNotFound = errors.New("case entry not found for document")

// runUploadDocument ingests a single uploaded document. Re-uploading
// byte-identical content is a no-op beyond bookkeeping.
func (p *Pipeline) runUploadDocument(tc *runtime.TaskContext) (*runtime.StepResult, error) {
	dbc := dbctx.Context{Ctx: tc.Ctx}
	item, err := p.repos.Processing.GetByID(dbc, tc.QueueItemID())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("processing queue item %s not found", tc.QueueItemID())
	}
	_ = p.tracker.MarkProcessing(dbc, item, types.StatusInProgress, "")

	data, err := p.bucket.ReadAll(tc.Ctx, gcp.BucketCategoryUpload, item.StorageKey)
	if err != nil {
		return p.retryOrFailProcessing(tc, dbc, item, fmt.Errorf("reading uploaded content: %w", err))
	}

	hash := sha1Hex(data)

	doc, courtCase, entry, err := p.resolveDocument(dbc, item)
	if errors.Is(err, errEntryNotFound) {
		return p.retryOrFailProcessing(tc, dbc, item, err)
	}
	if err != nil {
		return nil, err
	}

	// Idempotence gate: identical hash on an available document with stored
	// content means the upload already happened.
	unchanged := doc.ID != uuid.Nil &&
		doc.SHA1 == hash &&
		doc.IsAvailable &&
		doc.StorageKey != ""

	if item.Debug {
		_ = p.tracker.MarkProcessingSuccessful(dbc, item, "Successful (debug: no persistence).")
		p.tracker.ReleaseBlob(tc.Ctx, item)
		return runtime.Halt(), nil
	}

	if unchanged {
		p.fillItemRefs(item, courtCase, entry, doc)
		_ = p.tracker.MarkProcessingSuccessful(dbc, item, "Document already up to date.")
		p.tracker.ReleaseBlob(tc.Ctx, item)
		return runtime.Halt(), nil
	}

	created := doc.ID == uuid.Nil
	if created {
		if err := p.repos.Document.Create(dbc, doc); err != nil {
			if dberr.IsUniqueViolation(err) {
				_ = p.tracker.MarkProcessing(dbc, item, types.StatusFailed, "Duplicate document for this entry.")
				p.tracker.ReleaseBlob(tc.Ctx, item)
				return runtime.Halt(), nil
			}
			return nil, err
		}
	}

	storageKey := fmt.Sprintf("documents/%s.pdf", doc.ID)
	if err := p.bucket.Upload(tc.Ctx, gcp.BucketCategoryDocument, storageKey, bytes.NewReader(data)); err != nil {
		return p.retryOrFailProcessing(tc, dbc, item, fmt.Errorf("storing document content: %w", err))
	}

	now := time.Now()
	size := int64(len(data))
	updates := map[string]interface{}{
		"sha1":         hash,
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
	doc.SHA1 = hash
	doc.FileSize = &size
	doc.StorageKey = storageKey
	doc.IsAvailable = true
	doc.DateUpload = &now

	if courtCase != nil && !courtCase.SnapshotNeeded {
		_ = p.repos.Case.UpdateFields(dbc, courtCase.ID, map[string]interface{}{
			"snapshot_needed": true,
		})
	}
	if err := p.search.NotifyDocumentChanged(tc.Ctx, doc.ID); err != nil {
		p.log.Warn("Search notify failed", "document_id", doc.ID, "error", err)
	}

	p.fillItemRefs(item, courtCase, entry, doc)
	_ = p.tracker.MarkProcessingSuccessful(dbc, item, "")
	p.tracker.ReleaseBlob(tc.Ctx, item)

	values := map[string]any{"document_id": doc.ID.String()}
	if courtCase != nil {
		values["case_id"] = courtCase.ID.String()
	}
	return runtime.Continue(values), nil
}

// resolveDocument locates the target document: by the remote system's
// document id when known, else by walking case -> entry -> document and
// creating an unsaved document when the entry exists.
func (p *Pipeline) resolveDocument(dbc dbctx.Context, item *types.ProcessingQueueItem) (*types.CaseDocument, *types.Case, *types.CaseEntry, error) {
	if item.DocSystemID != "" {
		doc, err := p.repos.Document.GetBySystemID(dbc, item.CourtID, item.DocSystemID)
		if err != nil {
			return nil, nil, nil, err
		}
		if doc != nil {
			courtCase, entry, err := p.resolveOwners(dbc, doc)
			return doc, courtCase, entry, err
		}
	}

	courtCase, err := p.repos.Case.GetBySystemID(dbc, item.CourtID, item.CaseSystemID)
	if err != nil {
		return nil, nil, nil, err
	}
	if courtCase == nil {
		return nil, nil, nil, errEntryNotFound
	}
	entryNumber, err := strconv.ParseInt(item.DocumentNumber, 10, 64)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid document number %q: %w", item.DocumentNumber, err)
	}
	entry, err := p.repos.Entry.GetByCaseAndNumber(dbc, courtCase.ID, entryNumber)
	if err != nil {
		return nil, nil, nil, err
	}
	if entry == nil {
		return nil, nil, nil, errEntryNotFound
	}

	docType := int16(types.DocTypeMain)
	if item.AttachmentNumber != nil {
		docType = types.DocTypeAttachment
	}
	doc, err := p.repos.Document.GetByEntryNumberType(dbc, entry.ID, item.DocumentNumber, item.AttachmentNumber, docType)
	if err != nil {
		return nil, nil, nil, err
	}
	if doc == nil {
		doc = &types.CaseDocument{
			EntryID:          entry.ID,
			DocumentNumber:   item.DocumentNumber,
			AttachmentNumber: item.AttachmentNumber,
			DocumentType:     docType,
		}
		if item.DocSystemID != "" {
			id := item.DocSystemID
			doc.DocSystemID = &id
		}
	}
	return doc, courtCase, entry, nil
}

func (p *Pipeline) resolveOwners(dbc dbctx.Context, doc *types.CaseDocument) (*types.Case, *types.CaseEntry, error) {
	entry, err := p.repos.Entry.GetByID(dbc, doc.EntryID)
	if err != nil || entry == nil {
		return nil, entry, err
	}
	courtCase, err := p.repos.Case.GetByID(dbc, entry.CaseID)
	return courtCase, entry, err
}

func (p *Pipeline) fillItemRefs(item *types.ProcessingQueueItem, courtCase *types.Case, entry *types.CaseEntry, doc *types.CaseDocument) {
	if courtCase != nil {
		id := courtCase.ID
		item.CaseID = &id
	}
	if entry != nil {
		id := entry.ID
		item.EntryID = &id
	}
	if doc != nil && doc.ID != uuid.Nil {
		id := doc.ID
		item.DocumentID = &id
	}
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
