package ingest

import (
	"github.com/casepulse/casepulse-backend/internal/data/repos/court"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// CaseMatcher resolves which case a (court, case-system-id, docket-number)
// tuple refers to, creating one when none exists.
type CaseMatcher struct {
	cases court.CaseRepo
	log   *logger.Logger
}

func NewCaseMatcher(cases court.CaseRepo, baseLog *logger.Logger) *CaseMatcher {
	return &CaseMatcher{
		cases: cases,
		log:   baseLog.With("component", "CaseMatcher"),
	}
}

// FindOrCreate resolves in order: exact (court, caseSystemID) match when the
// identifier is known; then (court, docketNumber); else a fresh case carrying
// only the given identifiers. A case-system-id match is authoritative;
// ambiguity among docket-number candidates is the reference reconciler's
// problem, not this one's, so the oldest candidate wins here.
func (m *CaseMatcher) FindOrCreate(dbc dbctx.Context, courtID, caseSystemID, docketNumber string) (*types.Case, error) {
	if caseSystemID != "" {
		found, err := m.cases.GetBySystemID(dbc, courtID, caseSystemID)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}

	if docketNumber != "" {
		candidates, err := m.cases.ListByCourtDocket(dbc, courtID, docketNumber)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			found := candidates[0]
			if found.CaseSystemID == nil && caseSystemID != "" {
				found.CaseSystemID = &caseSystemID
			}
			return found, nil
		}
	}

	courtCase := &types.Case{
		CourtID:      courtID,
		DocketNumber: docketNumber,
	}
	if caseSystemID != "" {
		courtCase.CaseSystemID = &caseSystemID
	}
	m.log.Debug("Creating new case",
		"court_id", courtID,
		"case_system_id", caseSystemID,
		"docket_number", docketNumber,
	)
	return courtCase, nil
}
