package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"audioconv/internal/batch"
	"audioconv/internal/config"
	"audioconv/internal/convert"
	"audioconv/internal/formats"
	"audioconv/internal/logging"
	"audioconv/internal/naming"
	"audioconv/internal/preflight"
)

var errJobsFailed = errors.New("conversion incomplete")

type convertOptions struct {
	target           string
	quality          int
	split            bool
	recursive        bool
	pattern          string
	jobs             int
	outputDir        string
	sameFormat       string
	verify           bool
	keepIntermediate bool
	noProgress       bool
}

// apply copies the flags the user actually set onto cfg.
func (o *convertOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("target") {
		target, err := formats.ParseTarget(o.target)
		if err != nil {
			return err
		}
		cfg.Encoder.Target = target.String()
	}
	if changed("quality") {
		cfg.SetQuality(o.quality)
	}
	if changed("split") {
		cfg.Run.Split = o.split
	}
	if changed("recursive") {
		cfg.Run.Recursive = o.recursive
	}
	if changed("pattern") {
		cfg.Run.Pattern = o.pattern
	}
	if changed("jobs") {
		cfg.Run.Jobs = o.jobs
	}
	if changed("output-dir") {
		cfg.Output.Dir = o.outputDir
	}
	if changed("same-format") {
		cfg.Output.SameFormat = o.sameFormat
	}
	if changed("verify") {
		cfg.Run.Verify = o.verify
	}
	if changed("keep-intermediate") {
		cfg.Run.KeepIntermediate = o.keepIntermediate
	}
	return cfg.Finalize()
}

func runConvert(cmd *cobra.Command, ctx *commandContext, opts *convertOptions, args []string) error {
	cfg, err := ctx.configCopy()
	if err != nil {
		return err
	}
	if err := opts.apply(cmd, cfg); err != nil {
		return err
	}
	logger, err := ctx.newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, r := range failed {
			details = append(details, r.Name+": "+r.Detail)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
	}

	table := formats.NewTable(cfg.Tools)
	dispatcher := formats.NewDispatcher(table)
	paths, err := batch.Collect(args, cfg.Run.Recursive, cfg.Run.Pattern, dispatcher.Known)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no input files found")
	}
	warnMissingTools(cfg, table, dispatcher, paths, logger)

	namer := naming.New(
		naming.WithOutputDir(cfg.Output.Dir),
		naming.WithMarker(cfg.Output.Marker),
		naming.WithMaxAttempts(cfg.Output.MaxAttempts),
	)
	runner := convert.NewRunner(cfg, table, namer, convert.WithLogger(logger))

	batchOpts := []batch.Option{batch.WithLogger(logger)}
	if !opts.noProgress && isTerminal(os.Stderr) {
		batchOpts = append(batchOpts, batch.WithReporter(newProgressReporter(os.Stderr)))
	}
	b, err := batch.New(cfg, dispatcher, runner, batchOpts...)
	if err != nil {
		return err
	}

	summary, err := b.Run(cmd.Context(), paths)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderSummary(summary, commonDir(paths)))
	fmt.Fprintf(out, "%d converted, %d skipped, %d failed in %s\n",
		summary.Converted(), summary.Skipped(), summary.Failed(), summary.Elapsed.Round(10*time.Millisecond))
	if summary.Failed() > 0 {
		return fmt.Errorf("%w: %d of %d files failed", errJobsFailed, summary.Failed(), len(summary.Results))
	}
	return nil
}

// warnMissingTools reports unavailable decoders and encoders before the run
// so users see one warning instead of one failure per file.
func warnMissingTools(cfg *config.Config, table *formats.Table, dispatcher *formats.Dispatcher, paths []string, logger *slog.Logger) {
	target, err := formats.ParseTarget(cfg.Encoder.Target)
	if err != nil {
		return
	}
	seen := make(map[formats.Format]struct{})
	var sources []formats.Format
	for _, path := range paths {
		f, err := dispatcher.Lookup(filepath.Ext(path))
		if err != nil {
			continue
		}
		if _, ok := seen[f]; !ok {
			seen[f] = struct{}{}
			sources = append(sources, f)
		}
	}
	reqs := preflight.RequiredTools(table, sources, target, cfg.Run.Split)
	for _, status := range preflight.Missing(preflight.CheckTools(reqs, cfg.Tools.Dir)) {
		logger.Warn("required tool not found",
			logging.String("tool", status.Command),
			logging.String("needed_for", status.Description),
			logging.String("detail", status.Detail),
		)
	}
}

// commonDir returns the directory shared by every path, used to shorten
// paths in the summary table.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	common := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := filepath.Dir(p)
		for common != "." && common != string(filepath.Separator) &&
			dir != common && !strings.HasPrefix(dir, common+string(filepath.Separator)) {
			common = filepath.Dir(common)
		}
	}
	return common
}
