package ingest

import (
	"strings"

	"github.com/casepulse/casepulse-backend/internal/data/dberr"
	"github.com/casepulse/casepulse-backend/internal/data/repos/court"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// similarityThreshold is the acceptance bound for ambiguous candidate
// matching. Strictly-greater comparison: a ratio of exactly 0.65 is
// rejected. Keep the literal value.
const similarityThreshold = 0.65

// Reconciler merges authoritative reference-database rows into cases when
// the reference row carries no case-system identifier, so the natural key
// is ambiguous.
type Reconciler struct {
	cases  court.CaseRepo
	merger *Merger
	log    *logger.Logger
}

func NewReconciler(cases court.CaseRepo, merger *Merger, baseLog *logger.Logger) *Reconciler {
	return &Reconciler{
		cases:  cases,
		merger: merger,
		log:    baseLog.With("component", "Reconciler"),
	}
}

// ReconcileRow resolves one reference row to a case: zero candidates create
// a new case, one candidate merges directly, several disambiguate by
// case-name similarity.
func (r *Reconciler) ReconcileRow(dbc dbctx.Context, ref *types.ReferenceCase) (*types.Case, error) {
	// A case already holding the back-link wins outright; re-running a row
	// refreshes that case instead of re-matching.
	linked, err := r.cases.GetByReferenceID(dbc, ref.ID)
	if err != nil {
		return nil, err
	}
	if linked != nil {
		return r.mergeInto(dbc, linked, ref)
	}

	if ref.CaseSystemID != nil && *ref.CaseSystemID != "" {
		found, err := r.cases.GetBySystemID(dbc, ref.CourtID, *ref.CaseSystemID)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return r.mergeInto(dbc, found, ref)
		}
	}

	candidates, err := r.cases.ListByCourtDocket(dbc, ref.CourtID, ref.DocketNumber)
	if err != nil {
		return nil, err
	}
	candidates = filterUnrelated(candidates)

	switch len(candidates) {
	case 0:
		return r.createFrom(dbc, ref)
	case 1:
		return r.mergeInto(dbc, candidates[0], ref)
	default:
		if best := r.bestByName(candidates, ref); best != nil {
			return r.mergeInto(dbc, best, ref)
		}
		return r.createFrom(dbc, ref)
	}
}

// filterUnrelated drops candidates that textual markers identify as
// criminal, sealed, suppressed, or search-warrant matters.
func filterUnrelated(candidates []*types.Case) []*types.Case {
	out := candidates[:0]
	for _, c := range candidates {
		docket := strings.ToLower(c.DocketNumber)
		name := strings.ToLower(c.CaseName)
		if strings.Contains(docket, "cr") {
			continue
		}
		if strings.Contains(name, "sealed") ||
			strings.Contains(name, "suppressed") ||
			strings.Contains(name, "search warrant") {
			continue
		}
		out = append(out, c)
	}
	return out
}

// bestByName scores each candidate's truncated "plaintiff v. defendant"
// name against the reference row's and returns the best scorer, or nil when
// none exceeds the threshold. A name that does not split into two parties
// ("in re" matters etc.) is scored whole rather than skipped.
func (r *Reconciler) bestByName(candidates []*types.Case, ref *types.ReferenceCase) *types.Case {
	target := TruncatedCaseName(ref.Plaintiff, ref.Defendant)

	var best *types.Case
	bestRatio := 0.0
	for _, c := range candidates {
		name := HarmonizeCaseName(c.CaseName)
		if plaintiff, defendant, ok := SplitCaseName(name); ok {
			name = TruncatedCaseName(plaintiff, defendant)
		}
		ratio := SimilarityRatio(name, target)
		if ratio > bestRatio {
			bestRatio = ratio
			best = c
		}
	}
	if bestRatio > similarityThreshold {
		return best
	}
	return nil
}

func (r *Reconciler) createFrom(dbc dbctx.Context, ref *types.ReferenceCase) (*types.Case, error) {
	courtCase := &types.Case{
		CourtID:      ref.CourtID,
		DocketNumber: ref.DocketNumber,
		ReferenceID:  &ref.ID,
		Source:       types.SourceReference,
	}
	r.merger.MergeReference(courtCase, ref)
	if err := r.cases.Create(dbc, courtCase); err != nil {
		return nil, err
	}
	return courtCase, nil
}

// mergeInto fills the case from the reference row and records the back-link.
// At most one case may link a given reference row; losing that race clears
// the stale link and retries the save once.
func (r *Reconciler) mergeInto(dbc dbctx.Context, courtCase *types.Case, ref *types.ReferenceCase) (*types.Case, error) {
	r.merger.MergeReference(courtCase, ref)
	courtCase.ReferenceID = &ref.ID
	courtCase.AddSource(types.SourceReference)

	err := r.cases.Save(dbc, courtCase)
	if err == nil {
		return courtCase, nil
	}
	if !dberr.IsUniqueViolation(err) {
		return nil, err
	}

	r.log.Warn("Reference back-link conflict, re-pointing",
		"reference_id", ref.ID,
		"case_id", courtCase.ID,
	)
	if err := r.cases.ClearReferenceLink(dbc, ref.ID); err != nil {
		return nil, err
	}
	if err := r.cases.Save(dbc, courtCase); err != nil {
		return nil, err
	}
	return courtCase, nil
}
