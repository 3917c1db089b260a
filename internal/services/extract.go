package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casepulse/casepulse-backend/internal/data/repos/court"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// TextExtractor pulls a stored document's bytes and populates its plain
// text. Runs as the chained extraction step after a document ingests.
type TextExtractor interface {
	ExtractDocument(ctx context.Context, documentID uuid.UUID) error
}

type textExtractor struct {
	log       *logger.Logger
	documents court.CaseDocumentRepo
	bucket    gcp.BucketService
	docAI     gcp.Document
}

func NewTextExtractor(log *logger.Logger, documents court.CaseDocumentRepo, bucket gcp.BucketService, docAI gcp.Document) (TextExtractor, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &textExtractor{
		log:       log.With("service", "TextExtractor"),
		documents: documents,
		bucket:    bucket,
		docAI:     docAI,
	}, nil
}

func (s *textExtractor) ExtractDocument(ctx context.Context, documentID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	doc, err := s.documents.GetByID(dbc, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document %s not found", documentID)
	}
	if doc.StorageKey == "" || !doc.IsAvailable {
		return fmt.Errorf("document %s has no stored content", documentID)
	}

	data, err := s.bucket.ReadAll(ctx, gcp.BucketCategoryDocument, doc.StorageKey)
	if err != nil {
		return err
	}
	text, err := s.docAI.ExtractText(ctx, data, "application/pdf")
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	now := time.Now()
	return s.documents.UpdateFields(dbc, doc.ID, map[string]interface{}{
		"plain_text":   text,
		"extracted_at": now,
	})
}
