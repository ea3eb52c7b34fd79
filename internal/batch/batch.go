package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"audioconv/internal/config"
	"audioconv/internal/convert"
	"audioconv/internal/faults"
	"audioconv/internal/formats"
	"audioconv/internal/jobctx"
	"audioconv/internal/logging"
)

// Converter runs a single job.
type Converter interface {
	Convert(ctx context.Context, job convert.Job) convert.Result
}

// Reporter observes run progress.
type Reporter interface {
	Start(total int)
	Done(result convert.Result)
	Finish()
}

// Option configures a Batch.
type Option func(*Batch)

// WithLogger sets the batch logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Batch) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithReporter attaches a progress reporter.
func WithReporter(r Reporter) Option {
	return func(b *Batch) {
		b.reporter = r
	}
}

// Batch runs a set of conversions.
type Batch struct {
	dispatcher *formats.Dispatcher
	converter  Converter
	target     formats.Target
	quality    int
	split      bool
	jobs       int
	outputDir  string
	logger     *slog.Logger
	reporter   Reporter
}

// New builds a Batch from configuration.
func New(cfg *config.Config, dispatcher *formats.Dispatcher, converter Converter, opts ...Option) (*Batch, error) {
	target, err := formats.ParseTarget(cfg.Encoder.Target)
	if err != nil {
		return nil, err
	}
	b := &Batch{
		dispatcher: dispatcher,
		converter:  converter,
		target:     target,
		quality:    cfg.Quality(),
		split:      cfg.Run.Split,
		jobs:       max(cfg.Run.Jobs, 1),
		outputDir:  cfg.Output.Dir,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, "batch")
	return b, nil
}

// Run converts every path and returns the per-job outcome. The returned
// error is reserved for problems that prevent the run from starting.
func (b *Batch) Run(ctx context.Context, paths []string) (*Summary, error) {
	locks, err := lockDirs(b.outputDirs(paths))
	if err != nil {
		return nil, err
	}
	defer locks.release()

	runID := uuid.NewString()
	ctx = jobctx.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, b.logger)
	logger.Info("run started",
		logging.Int("files", len(paths)),
		logging.String("target", b.target.String()),
		logging.Int("quality", b.quality),
		logging.Int("jobs", b.jobs),
	)

	summary := &Summary{RunID: runID, Results: make([]convert.Result, len(paths))}
	if b.reporter != nil {
		b.reporter.Start(len(paths))
		defer b.reporter.Finish()
	}

	started := time.Now()
	var g errgroup.Group
	g.SetLimit(b.jobs)
	for i, path := range paths {
		g.Go(func() error {
			result := b.runOne(ctx, path)
			summary.Results[i] = result
			b.log(ctx, result)
			if b.reporter != nil {
				b.reporter.Done(result)
			}
			return nil
		})
	}
	_ = g.Wait()
	summary.Elapsed = time.Since(started)

	logger.Info("run finished",
		logging.Int("converted", summary.Converted()),
		logging.Int("skipped", summary.Skipped()),
		logging.Int("failed", summary.Failed()),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (b *Batch) runOne(ctx context.Context, path string) convert.Result {
	job := convert.Job{
		ID:      uuid.NewString(),
		Source:  path,
		Target:  b.target,
		Quality: b.quality,
		Split:   b.split,
	}
	failed := func(err error) convert.Result {
		return convert.Result{Job: job, Status: convert.StatusFailed, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return failed(faults.Wrap(faults.ErrConversionFailed, faults.StageDetect, "stat", path, err))
	}
	if !info.Mode().IsRegular() {
		return failed(faults.Wrap(faults.ErrUnsupportedFormat, faults.StageDetect, "stat", path+" is not a regular file", nil))
	}
	format, err := b.dispatcher.Detect(path)
	if err != nil {
		return failed(err)
	}
	job.Format = format
	return b.converter.Convert(ctx, job)
}

func (b *Batch) log(ctx context.Context, result convert.Result) {
	ctx = jobctx.WithJobID(ctx, result.Job.ID)
	logger := logging.WithContext(ctx, b.logger).With(logging.String("source", result.Job.Source))
	switch result.Status {
	case convert.StatusConverted:
		logger.Info("converted",
			logging.String("output", strings.Join(result.Outputs, ", ")),
			logging.Duration("duration", result.Duration.Round(time.Millisecond)),
		)
	case convert.StatusSkipped:
		logger.Info("skipped", logging.String("reason", "already "+b.target.String()))
	default:
		logger.Error("conversion failed",
			logging.String("reason", faults.Classify(result.Err)),
			logging.Error(result.Err),
		)
	}
}

// outputDirs lists the directories a run may write into.
func (b *Batch) outputDirs(paths []string) []string {
	if b.outputDir != "" {
		return []string{b.outputDir}
	}
	dirs := make([]string, 0, len(paths))
	for _, path := range paths {
		dirs = append(dirs, filepath.Dir(path))
	}
	return dirs
}

