package convert

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"audioconv/internal/faults"
	"audioconv/internal/fileutil"
	"audioconv/internal/formats"
	"audioconv/internal/jobctx"
	"audioconv/internal/logging"
	"audioconv/internal/pipeline"
	"audioconv/internal/tags"
	"audioconv/internal/verify"
)

// work carries the per-job state shared by the single and split paths.
type work struct {
	runner  *Runner
	logger  *slog.Logger
	job     Job
	entry   formats.Entry
	encoder formats.Encoder
	tools   resolvedTools
	scratch string
}

func (w *work) single(ctx context.Context, fields tags.Fields) (string, error) {
	output, err := w.runner.namer.Reserve(w.job.Source, w.job.Target.Extension())
	if err != nil {
		return "", err
	}
	defer w.runner.namer.Release(output)

	if w.entry.Decoder.Mode == formats.DecodeStream {
		err := w.encode(ctx, output, fields, func(partial string) error {
			decoder := w.decodeInvocation(w.job.Source, "")
			encoder := w.encodeInvocation(w.encoder.StdinInput, partial, fields)
			return w.runner.exec.Piped(jobctx.WithStage(ctx, string(faults.StageDecode)), decoder, encoder)
		})
		if err != nil {
			return "", err
		}
		return output, nil
	}

	wav, err := w.intermediate(ctx)
	if err != nil {
		return "", err
	}
	if err := w.encodeFile(ctx, wav, output, fields); err != nil {
		return "", err
	}
	w.keep(wav, output)
	return output, nil
}

// intermediate produces a WAV file for the source and returns its path.
func (w *work) intermediate(ctx context.Context) (string, error) {
	if w.entry.Decoder.Mode == formats.DecodeNone {
		return w.job.Source, nil
	}
	ctx = jobctx.WithStage(ctx, string(faults.StageDecode))
	wav := filepath.Join(w.scratch, baseName(w.job.Source)+".wav")

	switch w.entry.Decoder.Mode {
	case formats.DecodeFile:
		if err := w.runner.exec.Run(ctx, w.decodeInvocation(w.job.Source, wav)); err != nil {
			return "", err
		}
	default:
		f, err := os.Create(wav)
		if err != nil {
			return "", faults.Wrap(faults.ErrConversionFailed, faults.StageDecode, "create intermediate", wav, err)
		}
		inv := w.decodeInvocation(w.job.Source, "")
		inv.Stdout = f
		runErr := w.runner.exec.Run(ctx, inv)
		closeErr := f.Close()
		if runErr != nil {
			return "", runErr
		}
		if closeErr != nil {
			return "", faults.Wrap(faults.ErrConversionFailed, faults.StageDecode, "write intermediate", wav, closeErr)
		}
	}

	if _, err := os.Stat(wav); err != nil {
		return "", &faults.ConversionError{Stage: faults.StageDecode, Tool: w.entry.Decoder.Tool, Err: errors.New("decoder produced no intermediate")}
	}
	if w.runner.verify {
		info, err := verify.Intermediate(wav)
		if err != nil {
			return "", err
		}
		w.logger.Debug("intermediate verified",
			logging.Int("sample_rate", info.SampleRate),
			logging.Int("channels", info.Channels),
			logging.Int("bit_depth", info.BitDepth),
		)
	}
	return wav, nil
}

func (w *work) encodeFile(ctx context.Context, wav, output string, fields tags.Fields) error {
	return w.encode(ctx, output, fields, func(partial string) error {
		inv := w.encodeInvocation(wav, partial, fields)
		return w.runner.exec.Run(jobctx.WithStage(ctx, string(faults.StageEncode)), inv)
	})
}

// encode runs produce against a hidden partial path next to output, then
// verifies, tags and publishes it. The partial file never survives a failure.
func (w *work) encode(ctx context.Context, output string, fields tags.Fields, produce func(partial string) error) (err error) {
	partial := partialPath(output)
	defer func() {
		if err != nil {
			if rmErr := os.Remove(partial); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				w.logger.Warn("failed to remove partial output", logging.String("path", partial), logging.Error(rmErr))
			}
		}
	}()

	if err := produce(partial); err != nil {
		return err
	}
	if _, err := os.Stat(partial); err != nil {
		return &faults.ConversionError{Stage: faults.StageEncode, Tool: w.encoder.Tool, Err: errors.New("encoder produced no output")}
	}

	if w.runner.verify {
		info, err := verify.Output(partial, w.job.Target)
		if err != nil {
			return err
		}
		w.logger.Debug("output verified", logging.Int("sample_rate", info.SampleRate), logging.Int("channels", info.Channels))
	}

	if w.job.Target == formats.TargetMP3 && !fields.Empty() {
		if err := tags.WriteID3(partial, fields); err != nil {
			w.logger.Warn("tag transfer failed", logging.String("output", output), logging.Error(err))
		}
	}

	return publish(partial, output)
}

// publish moves partial onto output without ever replacing an existing file.
func publish(partial, output string) error {
	err := os.Link(partial, output)
	switch {
	case err == nil:
		_ = os.Remove(partial)
		return nil
	case errors.Is(err, fs.ErrExist):
		return faults.Wrap(faults.ErrConversionFailed, faults.StageOutput, "publish", output+" appeared during encoding", err)
	}
	// Filesystems without hard links fall back to rename.
	if _, statErr := os.Lstat(output); statErr == nil {
		return faults.Wrap(faults.ErrConversionFailed, faults.StageOutput, "publish", output+" appeared during encoding", fs.ErrExist)
	}
	if err := os.Rename(partial, output); err != nil {
		return faults.Wrap(faults.ErrConversionFailed, faults.StageOutput, "publish", output, err)
	}
	return nil
}

func partialPath(output string) string {
	return filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".partial")
}

// keep moves a scratch intermediate next to output when requested.
func (w *work) keep(wav, output string) {
	if !w.runner.keepIntermediate || wav == w.job.Source {
		return
	}
	dst, err := w.runner.namer.ReserveName(filepath.Dir(output), baseName(output), ".wav")
	if err != nil {
		w.logger.Warn("cannot keep intermediate", logging.Error(err))
		return
	}
	defer w.runner.namer.Release(dst)
	if err := fileutil.MoveFile(wav, dst); err != nil {
		w.logger.Warn("cannot keep intermediate", logging.String("path", dst), logging.Error(err))
		return
	}
	w.logger.Info("kept intermediate", logging.String("path", dst))
}

func (w *work) decodeInvocation(input, wav string) pipeline.Invocation {
	args := formats.Expand(w.entry.Decoder.Args, formats.Values{Input: input, WAV: wav})
	return w.tools.invocation(faults.StageDecode, w.entry.Decoder.Tool, args)
}

func (w *work) encodeInvocation(input, partial string, fields tags.Fields) pipeline.Invocation {
	values := formats.Values{
		Input:   input,
		Output:  partial,
		Quality: w.job.Quality,
	}
	if w.job.Target == formats.TargetOgg {
		values.Comments = tags.VorbisComments(fields)
	}
	args := formats.Expand(w.encoder.Args, values)
	return w.tools.invocation(faults.StageEncode, w.encoder.Tool, args)
}
