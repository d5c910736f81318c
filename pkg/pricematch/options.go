// Package pricematch fills prices into a working spreadsheet by fuzzy-matching
// its descriptions against a reference spreadsheet, then records provenance
// and writes an audit report.
package pricematch

import (
	"time"

	"github.com/ukaji3/pricematch-go/pkg/pricematch/matcher"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/parser"
)

// StoreFactory builds the workbook store for one run.
type StoreFactory func(limits models.Limits) *parser.Store

// StageObserver is notified of every stage a run enters.
type StageObserver func(runID string, stage Stage)

// Options configures a Pipeline.
type Options struct {
	// Limits bounds the accepted input workbooks.
	Limits models.Limits
	// Scorer names the similarity scorer (ratio, token-sort, jaro-winkler).
	Scorer string
	// ScoreFunc overrides Scorer when set.
	ScoreFunc matcher.Scorer
	// FoldCase compares descriptions case-insensitively.
	FoldCase bool
	// NewStore builds the per-run store. Defaults to parser.NewStore.
	NewStore StoreFactory
	// Observer, if set, sees stage transitions.
	Observer StageObserver
	// Clock names report files. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions returns default pipeline options.
func DefaultOptions() Options {
	return Options{
		Limits:   models.DefaultLimits(),
		Scorer:   matcher.ScorerRatio,
		NewStore: parser.NewStore,
		Clock:    time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Limits.MaxSheets == 0 && len(o.Limits.Extensions) == 0 {
		o.Limits = d.Limits
	}
	if o.NewStore == nil {
		o.NewStore = d.NewStore
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}

func (o Options) scorer() (matcher.Scorer, error) {
	if o.ScoreFunc != nil {
		return o.ScoreFunc, nil
	}
	return matcher.ScorerByName(o.Scorer)
}
