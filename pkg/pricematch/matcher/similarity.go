package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// Scorer returns the similarity of two strings in [0, 100], where 100 means
// identical.
type Scorer func(a, b string) float64

// Scorer names accepted by ScorerByName.
const (
	ScorerRatio       = "ratio"
	ScorerTokenSort   = "token-sort"
	ScorerJaroWinkler = "jaro-winkler"
)

// ScorerNames lists the built-in scorers.
func ScorerNames() []string {
	return []string{ScorerRatio, ScorerTokenSort, ScorerJaroWinkler}
}

// ScorerByName returns a built-in scorer. An empty name selects Ratio.
func ScorerByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerRatio:
		return Ratio, nil
	case ScorerTokenSort:
		return TokenSortRatio, nil
	case ScorerJaroWinkler:
		return JaroWinkler, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q (must be one of: %s)", name, strings.Join(ScorerNames(), ", "))
	}
}

// Ratio is the normalized Indel similarity: 100 * 2*LCS / (len(a)+len(b)),
// computed over runes. Two empty strings are identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcsLength(ra, rb)) / float64(total)
}

// TokenSortRatio is Ratio over the whitespace-separated tokens of both
// strings sorted alphabetically, so word order does not matter.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortTokens(a), sortTokens(b))
}

// JaroWinkler scales the Jaro-Winkler similarity to [0, 100].
func JaroWinkler(a, b string) float64 {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return 100 * smetrics.JaroWinkler(a, b, 0.7, 4)
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// lcsLength returns the length of the longest common subsequence.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
