package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audioconv/internal/config"
	"audioconv/internal/deps"
	"audioconv/internal/faults"
	"audioconv/internal/formats"
	"audioconv/internal/jobctx"
	"audioconv/internal/logging"
	"audioconv/internal/naming"
	"audioconv/internal/pipeline"
	"audioconv/internal/tags"
)

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec pipeline.Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner executes conversion jobs.
type Runner struct {
	table            *formats.Table
	namer            *naming.Namer
	exec             pipeline.Executor
	logger           *slog.Logger
	toolsDir         string
	scratchDir       string
	sameFormat       string
	verify           bool
	keepIntermediate bool
}

// NewRunner constructs a Runner from configuration.
func NewRunner(cfg *config.Config, table *formats.Table, namer *naming.Namer, opts ...Option) *Runner {
	r := &Runner{
		table:            table,
		namer:            namer,
		logger:           logging.NewNop(),
		toolsDir:         cfg.Tools.Dir,
		scratchDir:       cfg.Paths.ScratchDir,
		sameFormat:       cfg.Output.SameFormat,
		verify:           cfg.Run.Verify,
		keepIntermediate: cfg.Run.KeepIntermediate,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "convert")
	if r.exec == nil {
		r.exec = pipeline.NewCommandExecutor(cfg.ToolTimeoutSeconds(), r.logger)
	}
	return r
}

// Convert runs job to completion and never panics on tool failures; every
// problem is reported through the Result.
func (r *Runner) Convert(ctx context.Context, job Job) Result {
	started := time.Now()
	ctx = jobctx.WithJobID(ctx, job.ID)
	ctx = jobctx.WithFile(ctx, job.Source)
	logger := logging.WithContext(ctx, r.logger)

	result := Result{Job: job}
	outputs, skipped, err := r.convert(ctx, logger, job)
	result.Outputs = outputs
	if len(outputs) > 0 {
		result.Job.Output = outputs[0]
	}
	result.Duration = time.Since(started)
	switch {
	case err != nil:
		result.Status = StatusFailed
		result.Err = err
	case skipped:
		result.Status = StatusSkipped
	default:
		result.Status = StatusConverted
	}
	return result
}

func (r *Runner) convert(ctx context.Context, logger *slog.Logger, job Job) ([]string, bool, error) {
	entry, ok := r.table.Entry(job.Format)
	if !ok {
		return nil, false, faults.Wrap(faults.ErrUnsupportedFormat, faults.StageDetect, "lookup", job.Source, nil)
	}
	encoder, ok := r.table.Encoder(job.Target)
	if !ok {
		return nil, false, faults.Wrap(faults.ErrConfiguration, faults.StageEncode, "lookup", fmt.Sprintf("no encoder for %s", job.Target), nil)
	}

	if job.Format == job.Target.Format() {
		switch r.sameFormat {
		case config.SameFormatReject:
			return nil, false, faults.Wrap(faults.ErrSameFormat, faults.StageDetect, "same format", job.Source, nil)
		case config.SameFormatAllow:
			logger.Info("re-encoding file already in target format", logging.String("target", job.Target.String()))
		default:
			logger.Warn("skipping file already in target format", logging.String("target", job.Target.String()))
			return nil, true, nil
		}
	}

	tools, err := r.resolveTools(entry, encoder, job.Split)
	if err != nil {
		return nil, false, err
	}

	fields, err := tags.Read(job.Source)
	if err != nil {
		logger.Warn("source tags unreadable; output will be untagged", logging.Error(err))
		fields = tags.Fields{}
	}

	scratch, err := os.MkdirTemp(r.scratchDir, "audioconv-")
	if err != nil {
		return nil, false, faults.Wrap(faults.ErrConversionFailed, faults.StageDecode, "scratch dir", r.scratchDir, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn("failed to remove scratch dir", logging.String("path", scratch), logging.Error(err))
		}
	}()

	w := &work{
		runner:  r,
		logger:  logger,
		job:     job,
		entry:   entry,
		encoder: encoder,
		tools:   tools,
		scratch: scratch,
	}
	if job.Split {
		outputs, err := w.split(ctx, fields)
		return outputs, false, err
	}
	output, err := w.single(ctx, fields)
	if err != nil {
		return nil, false, err
	}
	return []string{output}, false, nil
}

// resolvedTools maps tool names to executable paths for one job.
type resolvedTools map[string]string

func (r *Runner) resolveTools(entry formats.Entry, encoder formats.Encoder, split bool) (resolvedTools, error) {
	names := []string{encoder.Tool}
	if entry.Decoder.Mode != formats.DecodeNone {
		names = append(names, entry.Decoder.Tool)
	}
	if split {
		st := r.table.Split()
		names = append(names, st.Breakpoints, st.Splitter)
	}
	out := make(resolvedTools, len(names))
	for _, name := range names {
		path, err := deps.Resolve(name, r.toolsDir)
		if err != nil {
			return nil, err
		}
		out[name] = path
	}
	return out, nil
}

func (t resolvedTools) invocation(stage faults.Stage, tool string, args []string) pipeline.Invocation {
	return pipeline.Invocation{
		Stage: stage,
		Tool:  tool,
		Path:  t[tool],
		Args:  args,
	}
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
