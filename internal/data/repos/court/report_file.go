package court

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// CaseReportFileRepo records the raw report text archived for each merge.
// Rows are append-only.
type CaseReportFileRepo interface {
	Create(dbc dbctx.Context, file *types.CaseReportFile) error
	ListByCase(dbc dbctx.Context, caseID uuid.UUID) ([]*types.CaseReportFile, error)
}

type caseReportFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseReportFileRepo(db *gorm.DB, baseLog *logger.Logger) CaseReportFileRepo {
	return &caseReportFileRepo{
		db:  db,
		log: baseLog.With("repo", "CaseReportFileRepo"),
	}
}

func (r *caseReportFileRepo) Create(dbc dbctx.Context, file *types.CaseReportFile) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(file).Error
}

func (r *caseReportFileRepo) ListByCase(dbc dbctx.Context, caseID uuid.UUID) ([]*types.CaseReportFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CaseReportFile
	if caseID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
