package ingest

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// caseNameTruncation bounds how much of each party name participates in
// similarity scoring. Tuned for this domain's naming conventions; keep the
// literal value.
const caseNameTruncation = 30

var separatorVariants = []string{" v. ", " v ", " vs. ", " vs ", " V. ", " V ", " VS. ", " VS "}

// HarmonizeCaseName normalizes whitespace and the party separator so names
// from different report sources compare cleanly.
func HarmonizeCaseName(name string) string {
	s := strings.Join(strings.Fields(name), " ")
	for _, sep := range separatorVariants[1:] {
		s = strings.ReplaceAll(s, sep, " v. ")
	}
	return strings.TrimSpace(s)
}

// SplitCaseName splits a harmonized case name into plaintiff and defendant.
// ok is false when the name has no party separator (in re matters etc.).
func SplitCaseName(name string) (plaintiff, defendant string, ok bool) {
	parts := strings.SplitN(name, " v. ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	plaintiff = strings.TrimSpace(parts[0])
	defendant = strings.TrimSpace(parts[1])
	if plaintiff == "" || defendant == "" {
		return "", "", false
	}
	return plaintiff, defendant, true
}

// TruncatedCaseName rebuilds "plaintiff v. defendant" with each side capped
// at the truncation bound.
func TruncatedCaseName(plaintiff, defendant string) string {
	if len(plaintiff) > caseNameTruncation {
		plaintiff = plaintiff[:caseNameTruncation]
	}
	if len(defendant) > caseNameTruncation {
		defendant = defendant[:caseNameTruncation]
	}
	return plaintiff + " v. " + defendant
}

// SimilarityRatio scores two strings character-wise in [0, 1]. Comparison
// is case-insensitive; register party names are routinely all-caps.
func SimilarityRatio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	sm := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return sm.Ratio()
}
