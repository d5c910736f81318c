// Package matcher pairs working descriptions with the most similar
// reference descriptions.
package matcher

import (
	"context"
	"fmt"
	"math"

	pmerrors "github.com/ukaji3/pricematch-go/pkg/pricematch/errors"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
)

// Options configures a Matcher.
type Options struct {
	// Scorer computes similarity. Defaults to Ratio.
	Scorer Scorer

	// FoldCase compares descriptions case-insensitively.
	FoldCase bool
}

// Matcher finds the best reference entry for each working entry.
// A Matcher holds no per-run state and is safe for concurrent use.
type Matcher struct {
	scorer Scorer
	norm   normalizer
}

// New creates a Matcher.
func New(opts Options) *Matcher {
	scorer := opts.Scorer
	if scorer == nil {
		scorer = Ratio
	}
	return &Matcher{scorer: scorer, norm: newNormalizer(opts.FoldCase)}
}

type candidate struct {
	entry models.DescriptionEntry
	text  string
}

// FindBestMatch returns the reference entry most similar to entry, or nil if
// there are no references or the best score is below threshold. Ties keep the
// earliest reference; a perfect score ends the scan.
func (m *Matcher) FindBestMatch(entry models.DescriptionEntry, reference []models.DescriptionEntry, prices models.PriceMap, priceColumn string, threshold int) (*models.MatchResult, error) {
	return m.best(entry, m.prepare(reference), prices, priceColumn, threshold)
}

// Match runs FindBestMatch for every working entry in order and returns the
// accepted results. ctx is checked between entries.
func (m *Matcher) Match(ctx context.Context, working, reference []models.DescriptionEntry, prices models.PriceMap, priceColumn string, threshold int) ([]models.MatchResult, error) {
	refs := m.prepare(reference)
	results := make([]models.MatchResult, 0, len(working))
	for _, entry := range working {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := m.best(entry, refs, prices, priceColumn, threshold)
		if err != nil {
			return nil, err
		}
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

func (m *Matcher) prepare(reference []models.DescriptionEntry) []candidate {
	refs := make([]candidate, len(reference))
	for i, r := range reference {
		refs[i] = candidate{entry: r, text: m.norm.apply(r.Text)}
	}
	return refs
}

func (m *Matcher) best(entry models.DescriptionEntry, refs []candidate, prices models.PriceMap, priceColumn string, threshold int) (*models.MatchResult, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	text := m.norm.apply(entry.Text)
	var best *models.MatchCandidate
	for _, ref := range refs {
		score, err := m.score(text, ref.text)
		if err != nil {
			return nil, pmerrors.NewMatchingError(entry.Cell, ref.entry.Cell, err)
		}
		if best == nil || score > best.Score {
			best = &models.MatchCandidate{Description: ref.entry.Text, Cell: ref.entry.Cell, Score: score}
		}
		if score == 100 {
			break
		}
	}

	if best.Score < float64(threshold) {
		return nil, nil
	}
	best.Price, _ = prices.Lookup(priceCell(best.Cell, priceColumn))

	return &models.MatchResult{
		WorkingDescription:   entry.Text,
		WorkingCell:          entry.Cell,
		ReferenceDescription: best.Description,
		ReferenceCell:        best.Cell,
		Score:                best.Score,
		Price:                best.Price,
	}, nil
}

// score calls the scorer, converting panics and out-of-range results to
// errors.
func (m *Matcher) score(a, b string) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			score, err = 0, fmt.Errorf("scorer panicked: %v", r)
		}
	}()
	score = m.scorer(a, b)
	if math.IsNaN(score) || score < 0 || score > 100 {
		return 0, fmt.Errorf("score %v outside [0, 100]", score)
	}
	return score, nil
}

// priceCell returns the cell in priceColumn on the same row as cell.
func priceCell(cell, priceColumn string) string {
	row, err := models.RowOf(cell)
	if err != nil {
		return ""
	}
	return models.CellName(priceColumn, row)
}
