package court

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type CaseDocumentRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CaseDocument, error)
	GetBySystemID(dbc dbctx.Context, courtID, docSystemID string) (*types.CaseDocument, error)
	GetByEntryNumberType(dbc dbctx.Context, entryID uuid.UUID, documentNumber string, attachmentNumber *int, docType int16) (*types.CaseDocument, error)
	Create(dbc dbctx.Context, doc *types.CaseDocument) error
	Save(dbc dbctx.Context, doc *types.CaseDocument) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type caseDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseDocumentRepo(db *gorm.DB, baseLog *logger.Logger) CaseDocumentRepo {
	return &caseDocumentRepo{
		db:  db,
		log: baseLog.With("repo", "CaseDocumentRepo"),
	}
}

func (r *caseDocumentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CaseDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var doc types.CaseDocument
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetBySystemID resolves a document by the remote system's document id within
// one court. The id is only unique per court, so the lookup joins up to the
// owning case.
func (r *caseDocumentRepo) GetBySystemID(dbc dbctx.Context, courtID, docSystemID string) (*types.CaseDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if courtID == "" || docSystemID == "" {
		return nil, nil
	}
	var doc types.CaseDocument
	err := transaction.WithContext(dbc.Ctx).
		Joins("JOIN case_entry ON case_entry.id = case_document.entry_id").
		Joins("JOIN court_case ON court_case.id = case_entry.case_id").
		Where("case_document.doc_system_id = ? AND court_case.court_id = ?", docSystemID, courtID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *caseDocumentRepo) GetByEntryNumberType(dbc dbctx.Context, entryID uuid.UUID, documentNumber string, attachmentNumber *int, docType int16) (*types.CaseDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if entryID == uuid.Nil {
		return nil, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("entry_id = ? AND document_number = ? AND document_type = ?", entryID, documentNumber, docType)
	if attachmentNumber == nil {
		q = q.Where("attachment_number IS NULL")
	} else {
		q = q.Where("attachment_number = ?", *attachmentNumber)
	}
	var doc types.CaseDocument
	err := q.First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *caseDocumentRepo) Create(dbc dbctx.Context, doc *types.CaseDocument) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(doc).Error
}

func (r *caseDocumentRepo) Save(dbc dbctx.Context, doc *types.CaseDocument) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Save(doc).Error
}

func (r *caseDocumentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.CaseDocument{}).
		Where("id = ?", id).
		Updates(updates).Error
}
