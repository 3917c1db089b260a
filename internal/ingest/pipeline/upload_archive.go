package pipeline

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/ingest"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
)

// runUploadArchive fans a ZIP of documents out into per-member document
// uploads. The archive item itself is SUCCESSFUL once all members are
// enqueued; member completion is independent and asynchronous.
func (p *Pipeline) runUploadArchive(tc *runtime.TaskContext) (*runtime.StepResult, error) {
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
		return p.retryOrFailProcessing(tc, dbc, item, fmt.Errorf("reading uploaded archive: %w", err))
	}

	zr, err := ingest.OpenArchive(data)
	if err != nil {
		if errors.Is(err, ingest.ErrOversizedMember) {
			_ = p.tracker.MarkProcessing(dbc, item, types.StatusInvalidContent, err.Error())
		} else {
			_ = p.tracker.MarkProcessing(dbc, item, types.StatusInvalidContent, "Unreadable archive: "+err.Error())
		}
		p.tracker.ReleaseBlob(tc.Ctx, item)
		return runtime.Halt(), nil
	}

	// Validate every member name up front so a bad archive synthesizes no
	// children at all.
	type member struct {
		file             *zip.File
		documentNumber   string
		attachmentNumber *int
	}
	members := make([]member, 0, len(zr.File))
	for _, f := range zr.File {
		docNum, attNum, ok := ingest.ParseArchiveMemberName(f.Name)
		if !ok {
			_ = p.tracker.MarkProcessing(dbc, item, types.StatusInvalidContent,
				fmt.Sprintf("Archive member %q does not match the naming convention.", f.Name))
			p.tracker.ReleaseBlob(tc.Ctx, item)
			return runtime.Halt(), nil
		}
		members = append(members, member{file: f, documentNumber: docNum, attachmentNumber: attNum})
	}

	var mu sync.Mutex
	childIDs := make([]string, 0, len(members))

	g, gctx := errgroup.WithContext(tc.Ctx)
	g.SetLimit(4)
	for _, m := range members {
		m := m
		g.Go(func() error {
			rc, err := m.file.Open()
			if err != nil {
				return fmt.Errorf("open archive member %q: %w", m.file.Name, err)
			}
			content, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				return fmt.Errorf("read archive member %q: %w", m.file.Name, err)
			}

			gdbc := dbctx.Context{Ctx: gctx}
			storageKey := fmt.Sprintf("uploads/%s.pdf", uuid.New())
			if err := p.bucket.Upload(gctx, gcp.BucketCategoryUpload, storageKey, bytes.NewReader(content)); err != nil {
				return fmt.Errorf("store archive member %q: %w", m.file.Name, err)
			}

			child := &types.ProcessingQueueItem{
				UploaderID:       item.UploaderID,
				CourtID:          item.CourtID,
				CaseSystemID:     item.CaseSystemID,
				DocumentNumber:   m.documentNumber,
				AttachmentNumber: m.attachmentNumber,
				UploadType:       types.UploadDocument,
				StorageKey:       storageKey,
				Debug:            item.Debug,
			}
			// The parent's document identifier names only the main document.
			// An attachment member must re-resolve against known attachment
			// data, so it carries no identifier.
			if m.attachmentNumber == nil {
				child.DocSystemID = item.DocSystemID
			}
			if err := p.repos.Processing.Create(gdbc, child); err != nil {
				return fmt.Errorf("create child queue item for %q: %w", m.file.Name, err)
			}
			if _, err := p.dispatcher.DispatchUpload(gdbc, child); err != nil {
				return fmt.Errorf("dispatch child %s: %w", child.ID, err)
			}

			mu.Lock()
			childIDs = append(childIDs, child.ID.String())
			mu.Unlock()

			// Large archives can outlast the task lock; extend it as each
			// member lands.
			tc.Heartbeat()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return p.retryOrFailProcessing(tc, dbc, item, err)
	}

	_ = p.tracker.MarkProcessingSuccessful(dbc, item,
		fmt.Sprintf("Enqueued %d archive members.", len(childIDs)))
	p.tracker.ReleaseBlob(tc.Ctx, item)

	return runtime.Continue(map[string]any{"child_item_ids": childIDs}), nil
}
