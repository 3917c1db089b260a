package ingest

import (
	"testing"

	types "github.com/casepulse/casepulse-backend/internal/domain"
)

func TestFilterUnrelated(t *testing.T) {
	candidates := []*types.Case{
		{DocketNumber: "1:20-cv-01234", CaseName: "Smith v. Jones"},
		{DocketNumber: "1:20-cr-05678", CaseName: "USA v. Doe"},
		{DocketNumber: "1:20-cv-09999", CaseName: "Sealed v. Sealed"},
		{DocketNumber: "1:20-mj-00001", CaseName: "In re Search Warrant"},
		{DocketNumber: "1:20-cv-02222", CaseName: "Motion suppressed records"},
		{DocketNumber: "1:20-cv-03333", CaseName: "Brown v. Green"},
	}
	got := filterUnrelated(candidates)
	if len(got) != 2 {
		t.Fatalf("filterUnrelated kept %d candidates, want 2", len(got))
	}
	if got[0].CaseName != "Smith v. Jones" || got[1].CaseName != "Brown v. Green" {
		t.Fatalf("filterUnrelated kept %q and %q", got[0].CaseName, got[1].CaseName)
	}
}

func TestBestByNamePicksHighScorer(t *testing.T) {
	r := &Reconciler{}
	ref := &types.ReferenceCase{Plaintiff: "Smith", Defendant: "Jones"}
	candidates := []*types.Case{
		{CaseName: "Smith v. Jones Corp"},
		{CaseName: "Brown v. Green"},
	}
	best := r.bestByName(candidates, ref)
	if best == nil {
		t.Fatalf("bestByName returned nil, want the Smith candidate")
	}
	if best.CaseName != "Smith v. Jones Corp" {
		t.Fatalf("bestByName picked %q", best.CaseName)
	}
}

func TestBestByNameRejectsLowScores(t *testing.T) {
	r := &Reconciler{}
	ref := &types.ReferenceCase{Plaintiff: "Smith", Defendant: "Jones"}
	candidates := []*types.Case{
		{CaseName: "Abcdefgh v. Ijklmnop"},
		{CaseName: "Qrstuvwx v. Yzabcdef"},
	}
	if best := r.bestByName(candidates, ref); best != nil {
		t.Fatalf("bestByName = %q, want nil below threshold", best.CaseName)
	}
}

func TestBestByNameScoresUnsplittableNamesWhole(t *testing.T) {
	r := &Reconciler{}
	ref := &types.ReferenceCase{Plaintiff: "In re Grand", Defendant: "Jury"}
	candidates := []*types.Case{
		{CaseName: "In re Grand Jury"},
		{CaseName: "In re Bankruptcy Estate"},
	}
	best := r.bestByName(candidates, ref)
	if best == nil {
		t.Fatalf("bestByName returned nil, want the whole-name match")
	}
	if best.CaseName != "In re Grand Jury" {
		t.Fatalf("bestByName picked %q", best.CaseName)
	}
}

func TestBestByNameMatchesAllCapsRegisterNames(t *testing.T) {
	r := &Reconciler{}
	ref := &types.ReferenceCase{Plaintiff: "SMITH", Defendant: "JONES"}
	candidates := []*types.Case{
		{CaseName: "Smith v. Jones"},
		{CaseName: "Brown v. Green"},
	}
	best := r.bestByName(candidates, ref)
	if best == nil {
		t.Fatalf("bestByName returned nil, want the mixed-case Smith candidate")
	}
	if best.CaseName != "Smith v. Jones" {
		t.Fatalf("bestByName picked %q", best.CaseName)
	}
}

// The threshold is strict: a candidate scoring exactly 0.65 is rejected.
// With char-wise ratio 2M/T, 13 matching chars across two 20-char names
// lands exactly on the line; 14 clears it.
func TestBestByNameThresholdIsStrictlyGreater(t *testing.T) {
	r := &Reconciler{}
	ref := &types.ReferenceCase{Plaintiff: "aaaaaaaaa", Defendant: "bbbbbbb"}

	onLine := []*types.Case{{CaseName: "aaaaaaaaa v. ccccccc"}}
	if best := r.bestByName(onLine, ref); best != nil {
		t.Fatalf("bestByName = %q, want nil at exactly the threshold", best.CaseName)
	}

	above := []*types.Case{{CaseName: "aaaaaaaaa v. bcccccc"}}
	if best := r.bestByName(above, ref); best == nil {
		t.Fatalf("bestByName returned nil, want the candidate just above the threshold")
	}
}
