// Package service runs aggregation jobs: partition the input, parse it on a pool of
// workers, merge the partial counts and publish the report
package service

import (
	"context"
	"time"

	"visitagg/internal/adapters/ingest/visitlog"
	"visitagg/internal/core/dictionary"
	"visitagg/internal/core/linereader"
	"visitagg/internal/core/report"
	"visitagg/internal/core/visit"
	perr "visitagg/internal/platform/errors"
	"visitagg/internal/platform/logger"
	"visitagg/internal/platform/validate"
	"visitagg/internal/services/aggregate/domain"
	"visitagg/internal/services/aggregate/guardrails"

	"github.com/google/uuid"
)

// source is an opened input that must be released after the run
type source interface {
	domain.Input
	Close() error
}

// Service implements domain.RunnerPort
type Service struct {
	opts    domain.Options
	final   linereader.FinalLine
	parser  visit.Parser
	horizon dictionary.Horizon
	seeds   domain.SeedPort // optional

	open  func(path string) (source, error)
	newID func() string
}

// Result is the merged outcome of one aggregation, before serialization
type Result struct {
	Table report.Table
	Paths report.Namer
	Stats domain.Stats
}

// New validates opts and builds a service; seeds may be nil
func New(opts domain.Options, seeds domain.SeedPort) (*Service, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}
	final, err := linereader.ParseFinalLine(opts.FinalLine)
	if err != nil {
		return nil, err
	}
	h := opts.Horizon()
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		opts:    opts,
		final:   final,
		parser:  opts.Parser(),
		horizon: h,
		seeds:   seeds,
		open:    openVisitLog,
		newID:   uuid.NewString,
	}, nil
}

func openVisitLog(path string) (source, error) {
	s, err := visitlog.Open(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Options returns the validated options
func (s *Service) Options() domain.Options { return s.opts }

// Run aggregates job.Input and publishes the report at job.Output
// nothing is written to job.Output unless the whole run succeeds
func (s *Service) Run(ctx context.Context, job domain.Job) (domain.Stats, error) {
	start := time.Now()
	if job.Input == "" || job.Output == "" {
		return domain.Stats{}, perr.InvalidArgf("job needs both an input and an output path")
	}
	if job.ID == "" {
		job.ID = s.newID()
	}
	ctx = logger.WithJob(ctx, job.ID)
	ctx, cancel := guardrails.WithJob(ctx, guardrails.Timeouts{Job: s.opts.Timeout})
	defer cancel()

	logger.C(logger.WithStage(ctx, "init")).Info().
		Str("input", job.Input).
		Str("output", job.Output).
		Str("strategy", string(s.opts.Strategy)).
		Int("workers", s.opts.Workers).
		Msg("aggregation started")

	src, err := s.open(job.Input)
	if err != nil {
		return domain.Stats{JobID: job.ID}, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.C(ctx).Warn().Err(cerr).Msg("close input")
		}
	}()

	res, err := s.Aggregate(ctx, job.ID, src)
	if err != nil {
		return domain.Stats{JobID: job.ID}, err
	}
	if err := ctx.Err(); err != nil {
		return res.Stats, perr.Keep(err, perr.ErrorCodeCanceled, "aggregation")
	}

	sctx := logger.WithStage(ctx, "serialize")
	sum, err := report.WriteFile(job.Output, res.Table, res.Paths, s.horizon)
	if err != nil {
		return res.Stats, err
	}

	st := res.Stats
	st.Paths = sum.Paths
	st.Visits = sum.Visits
	st.Elapsed = time.Since(start)

	logger.C(sctx).Info().
		Str("strategy", string(st.Strategy)).
		Int("segments", st.Segments).
		Int64("lines", st.Lines).
		Int64("valid", st.Valid).
		Int64("skipped", st.Skipped).
		Int64("bytes", st.Bytes).
		Int("paths", st.Paths).
		Int("dates", sum.Dates).
		Uint64("visits", st.Visits).
		Int64("report_bytes", sum.Bytes).
		Dur("elapsed", st.Elapsed).
		Msg("aggregation done")
	return st, nil
}

// Aggregate counts every valid line of in with the configured strategy
// inputs that cannot be read at random offsets are always parsed sequentially
func (s *Service) Aggregate(ctx context.Context, jobID string, in domain.Input) (*Result, error) {
	strategy := s.opts.Strategy
	if !in.Seekable() && strategy != domain.StrategySequential {
		logger.C(ctx).Debug().Str("requested", string(strategy)).Msg("input not seekable; parsing sequentially")
		strategy = domain.StrategySequential
	}

	base, seeded, err := s.loadSeeds(ctx)
	if err != nil {
		return nil, err
	}

	var res *Result
	switch strategy {
	case domain.StrategySequential:
		res, err = s.sequential(ctx, in, base)
	case domain.StrategyDense:
		res, err = s.dense(ctx, in, base)
	case domain.StrategyBucketed:
		res, err = s.bucketed(ctx, in, base)
	default:
		return nil, perr.InvalidArgf("unknown strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}
	res.Stats.JobID = jobID
	res.Stats.Strategy = strategy
	res.Stats.Seeded = seeded
	return res, nil
}

// loadSeeds builds the base dictionary from the catalog, if one is configured
func (s *Service) loadSeeds(ctx context.Context) (*dictionary.Paths, int, error) {
	if s.seeds == nil {
		return dictionary.NewPaths(0), 0, nil
	}
	ctx = logger.WithStage(ctx, "seed")
	sctx, cancel := guardrails.ForSeed(ctx, guardrails.Timeouts{Seed: s.opts.SeedTimeout})
	defer cancel()

	paths, err := s.seeds.Paths(sctx)
	if err != nil {
		return nil, 0, perr.Keep(err, perr.ErrorCodeCatalog, "load catalog paths")
	}
	base := dictionary.NewPaths(len(paths))
	n := base.Seed(paths...)
	logger.C(ctx).Debug().Int("paths", n).Msg("catalog loaded")
	return base, n, nil
}

var _ domain.RunnerPort = (*Service)(nil)
