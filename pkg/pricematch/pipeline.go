package pricematch

import (
	"context"
	"time"

	"github.com/google/uuid"

	pmerrors "github.com/ukaji3/pricematch-go/pkg/pricematch/errors"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/logging"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/matcher"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/report"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/validate"
)

// Stage is a step of a matching run.
type Stage string

const (
	StageValidating Stage = "validating"
	StageLoading    Stage = "loading"
	StageExtracting Stage = "extracting"
	StageMatching   Stage = "matching"
	StageWriting    Stage = "writing"
	// StageClosed is entered exactly once per run, after every workbook
	// handle has been released.
	StageClosed Stage = "closed"
)

// Outcome is the result of a successful run.
type Outcome struct {
	RunID      string               `json:"run_id" yaml:"run_id"`
	ReportPath string               `json:"report_path" yaml:"report_path"`
	Results    []models.MatchResult `json:"results" yaml:"results"`
	Statistics models.Statistics    `json:"statistics" yaml:"statistics"`
}

// Pipeline runs matching requests. It is safe for concurrent use; every run
// gets its own workbook store.
type Pipeline struct {
	opts      Options
	validator *validate.Validator
	matcher   *matcher.Matcher
}

// New creates a Pipeline. It fails only for an unknown scorer name.
func New(opts Options) (*Pipeline, error) {
	opts = opts.withDefaults()
	scorer, err := opts.scorer()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		opts:      opts,
		validator: validate.New(opts.Limits),
		matcher:   matcher.New(matcher.Options{Scorer: scorer, FoldCase: opts.FoldCase}),
	}, nil
}

// Validate normalizes cfg and checks it without processing anything.
func (p *Pipeline) Validate(cfg models.MatchingConfig) validate.Result {
	return p.validator.Validate(cfg.Normalized())
}

// ProcessRequest runs the pipeline and returns the audit report path.
func (p *Pipeline) ProcessRequest(ctx context.Context, cfg models.MatchingConfig) (string, error) {
	out, err := p.Process(ctx, cfg)
	if err != nil {
		return "", err
	}
	return out.ReportPath, nil
}

// Process validates cfg, extracts both workbooks, matches, writes prices and
// provenance into the working file, and produces the audit report. Every
// workbook opened by the run is closed before Process returns, whatever the
// outcome. Returned errors keep their type from the errors package, except
// context cancellation which is returned as is.
func (p *Pipeline) Process(ctx context.Context, cfg models.MatchingConfig) (*Outcome, error) {
	return p.run(ctx, uuid.NewString(), cfg, nil)
}

func (p *Pipeline) run(ctx context.Context, runID string, cfg models.MatchingConfig, observe StageObserver) (out *Outcome, err error) {
	ctx = logging.WithRunID(ctx, runID)
	log := logging.FromContext(ctx)
	started := time.Now()

	enter := func(s Stage) {
		log.Debug().Str("stage", string(s)).Msg("entering stage")
		if observe != nil {
			observe(runID, s)
		}
		if p.opts.Observer != nil {
			p.opts.Observer(runID, s)
		}
	}

	store := p.opts.NewStore(p.opts.Limits)
	defer func() {
		if cerr := store.CloseAll(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing workbooks failed")
			if err == nil {
				out, err = nil, pmerrors.NewProcessingError("close", "", cerr)
			}
		}
		enter(StageClosed)
		if err != nil {
			log.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("run failed")
		}
	}()

	cfg = cfg.Normalized()
	wf, rf := cfg.WorkingFile, cfg.ReferenceFile

	enter(StageValidating)
	if err := p.validator.Validate(cfg).Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enter(StageLoading)
	if err := store.Load(wf.FilePath, rf.FilePath); err != nil {
		return nil, err
	}

	enter(StageExtracting)
	working, err := store.ReadDescriptions(wf.FilePath, wf.DescriptionColumn, wf.DescriptionRange)
	if err != nil {
		return nil, err
	}
	reference, err := store.ReadDescriptions(rf.FilePath, rf.DescriptionColumn, rf.DescriptionRange)
	if err != nil {
		return nil, err
	}
	prices, err := store.ReadPrices(rf.FilePath, rf.PriceSourceColumn, rf.DescriptionRange)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("working", len(working)).
		Int("reference", len(reference)).
		Int("prices", len(prices)).
		Msg("extracted descriptions")

	enter(StageMatching)
	results, err := p.matcher.Match(ctx, working, reference, prices, rf.PriceSourceColumn, cfg.Threshold)
	if err != nil {
		return nil, err
	}

	enter(StageWriting)
	reportPath, err := report.NewWriter(store).
		WithClock(p.opts.Clock).
		WriteResults(results, wf.FilePath, wf.PriceTargetColumn)
	if err != nil {
		return nil, err
	}

	stats := matcher.Statistics(results)
	log.Info().
		Int("matches", stats.Total).
		Float64("average_score", stats.Average).
		Str("report", reportPath).
		Dur("elapsed", time.Since(started)).
		Msg("run completed")

	return &Outcome{
		RunID:      runID,
		ReportPath: reportPath,
		Results:    results,
		Statistics: stats,
	}, nil
}
