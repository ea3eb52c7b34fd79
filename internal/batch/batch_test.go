package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"audioconv/internal/config"
	"audioconv/internal/convert"
	"audioconv/internal/faults"
	"audioconv/internal/formats"
	"audioconv/internal/naming"
	"audioconv/internal/testsupport"
)

func newBatch(t *testing.T, cfg *config.Config, opts ...Option) *Batch {
	t.Helper()
	table := formats.NewTable(cfg.Tools)
	namer := naming.New(naming.WithOutputDir(cfg.Output.Dir), naming.WithMarker(cfg.Output.Marker))
	runner := convert.NewRunner(cfg, table, namer)
	b, err := New(cfg, formats.NewDispatcher(table), runner, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestRunContinuesPastUnsupportedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.flac", "b.wv", "c.mp3", "notes.txt", "e.wav"} {
		path := filepath.Join(dir, name)
		testsupport.WriteFile(t, path, 64)
		paths = append(paths, path)
	}

	summary, err := newBatch(t, cfg).Run(context.Background(), paths)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Converted() != 4 || summary.Failed() != 1 {
		t.Fatalf("expected 4 converted / 1 failed, got %d / %d", summary.Converted(), summary.Failed())
	}
	failed := summary.Results[3]
	if failed.Job.Source != paths[3] || !errors.Is(failed.Err, faults.ErrUnsupportedFormat) {
		t.Fatalf("unexpected failed result %+v", failed)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
}

func TestRunMissingSourceIsFailedJob(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	dir := t.TempDir()
	good := filepath.Join(dir, "ok.flac")
	testsupport.WriteFile(t, good, 16)

	summary, err := newBatch(t, cfg).Run(context.Background(), []string{filepath.Join(dir, "gone.flac"), good})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed() != 1 || summary.Converted() != 1 {
		t.Fatalf("unexpected counts: %d failed, %d converted", summary.Failed(), summary.Converted())
	}
}

func TestRunParallelJobsGetUniqueNames(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Run.Jobs = 4
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.flac", "a.wv", "a.mp3", "a.wav", "a.ape"} {
		path := filepath.Join(dir, name)
		testsupport.WriteFile(t, path, 64)
		paths = append(paths, path)
	}

	summary, err := newBatch(t, cfg).Run(context.Background(), paths)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed() != 0 {
		for _, r := range summary.Results {
			t.Logf("%s: %v", r.Job.Source, r.Err)
		}
		t.Fatalf("expected no failures, got %d", summary.Failed())
	}
	outputs := summary.Outputs()
	sort.Strings(outputs)
	want := []string{"a.ogg", "a_encoded_.ogg", "a_encoded_2.ogg", "a_encoded_3.ogg", "a_encoded_4.ogg"}
	for i, name := range want {
		if filepath.Base(outputs[i]) != name {
			t.Fatalf("outputs = %v, want %v", outputs, want)
		}
	}
}

type recordingReporter struct {
	mu      sync.Mutex
	total   int
	done    int
	started bool
	ended   bool
}

func (r *recordingReporter) Start(total int) { r.started, r.total = true, total }
func (r *recordingReporter) Done(convert.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
}
func (r *recordingReporter) Finish() { r.ended = true }

func TestRunReportsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "x.flac"), filepath.Join(dir, "y.ogg")}
	for _, p := range paths {
		testsupport.WriteFile(t, p, 8)
	}

	reporter := &recordingReporter{}
	summary, err := newBatch(t, cfg, WithReporter(reporter)).Run(context.Background(), paths)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reporter.started || !reporter.ended || reporter.total != 2 || reporter.done != 2 {
		t.Fatalf("unexpected reporter state %+v", reporter)
	}
	if summary.Skipped() != 1 {
		t.Fatalf("ogg source should be skipped by default, got %d skipped", summary.Skipped())
	}
}

func TestRunRefusesLockedOutputDir(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithOutputDir())
	held, err := lockDirs([]string{cfg.Output.Dir})
	if err != nil {
		t.Fatalf("lockDirs: %v", err)
	}
	defer held.release()

	_, err = newBatch(t, cfg).Run(context.Background(), []string{filepath.Join(t.TempDir(), "a.flac")})
	if err == nil || !strings.Contains(err.Error(), "another audioconv run") {
		t.Fatalf("expected lock contention error, got %v", err)
	}
}

func TestRunCancelledContextFailsRemainingJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	dir := t.TempDir()
	path := filepath.Join(dir, "a.flac")
	testsupport.WriteFile(t, path, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := newBatch(t, cfg).Run(ctx, []string{path})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed() != 1 || !errors.Is(summary.Results[0].Err, context.Canceled) {
		t.Fatalf("expected cancelled job, got %+v", summary.Results[0])
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.ogg")); statErr == nil {
		t.Fatal("cancelled job must not write output")
	}
}
