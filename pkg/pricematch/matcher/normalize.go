package matcher

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizer prepares descriptions before scoring. Composed and decomposed
// forms of the same text always compare equal; case folding is optional.
type normalizer struct {
	foldCase bool
}

func newNormalizer(foldCase bool) normalizer {
	return normalizer{foldCase: foldCase}
}

func (n normalizer) apply(s string) string {
	s = norm.NFC.String(s)
	if n.foldCase {
		// Casers are stateful and must not be shared across goroutines.
		s = cases.Fold().String(s)
	}
	return s
}
