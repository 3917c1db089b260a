package ingest

import (
	"strings"
	"testing"
)

func TestHarmonizeCaseName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Smith v. Jones", "Smith v. Jones"},
		{"Smith  v.   Jones", "Smith v. Jones"},
		{"Smith v Jones", "Smith v. Jones"},
		{"Smith vs. Jones", "Smith v. Jones"},
		{"Smith vs Jones", "Smith v. Jones"},
		{"Smith V. Jones", "Smith v. Jones"},
		{"Smith VS Jones", "Smith v. Jones"},
		{"  Smith v. Jones  ", "Smith v. Jones"},
		{"In re Smith", "In re Smith"},
	}
	for _, tc := range cases {
		if got := HarmonizeCaseName(tc.in); got != tc.want {
			t.Fatalf("HarmonizeCaseName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitCaseName(t *testing.T) {
	p, d, ok := SplitCaseName("Smith v. Jones Corp")
	if !ok || p != "Smith" || d != "Jones Corp" {
		t.Fatalf("SplitCaseName = (%q, %q, %v)", p, d, ok)
	}

	if _, _, ok := SplitCaseName("In re Smith"); ok {
		t.Fatalf("SplitCaseName should reject names without a separator")
	}
	if _, _, ok := SplitCaseName(" v. Jones"); ok {
		t.Fatalf("SplitCaseName should reject an empty plaintiff")
	}
}

func TestTruncatedCaseName(t *testing.T) {
	long := strings.Repeat("x", 50)
	got := TruncatedCaseName(long, "Jones")
	want := strings.Repeat("x", 30) + " v. Jones"
	if got != want {
		t.Fatalf("TruncatedCaseName = %q, want %q", got, want)
	}

	if got := TruncatedCaseName("Smith", "Jones"); got != "Smith v. Jones" {
		t.Fatalf("TruncatedCaseName short = %q", got)
	}
}

func TestSimilarityRatio(t *testing.T) {
	if r := SimilarityRatio("Smith v. Jones", "Smith v. Jones"); r != 1.0 {
		t.Fatalf("identical names ratio = %f, want 1.0", r)
	}
	near := SimilarityRatio("Smith v. Jones", "Smith v. Jones Corp")
	far := SimilarityRatio("Smith v. Jones", "Brown v. Green")
	if near <= far {
		t.Fatalf("ratio ordering: near=%f far=%f", near, far)
	}
	if near <= similarityThreshold {
		t.Fatalf("near-identical names should clear the threshold, got %f", near)
	}
	if far > similarityThreshold {
		t.Fatalf("unrelated names should not clear the threshold, got %f", far)
	}
}

func TestSimilarityRatioIgnoresCase(t *testing.T) {
	if r := SimilarityRatio("SMITH v. JONES", "Smith v. Jones"); r != 1.0 {
		t.Fatalf("case-folded identical names ratio = %f, want 1.0", r)
	}
	if r := SimilarityRatio("IN RE GRAND JURY", "In re Grand Jury"); r != 1.0 {
		t.Fatalf("case-folded identical names ratio = %f, want 1.0", r)
	}
}
