package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"audioconv/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfgVal.Logging.Level = "debug"
	if err := os.MkdirAll(cfgVal.Paths.ScratchDir, 0o755); err != nil {
		t.Fatalf("mkdir scratch dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTarget switches the encoder target and its default quality.
func WithTarget(target string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoder.Target = target
	}
}

// WithOutputDir sends converted files to a dedicated directory under the base dir.
func WithOutputDir() ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "out")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir out dir: %v", err)
		}
		b.cfg.Output.Dir = dir
	}
}

// WithStubbedBinaries writes pass-through stub executables for the provided
// names, points tools.dir at them and prepends them to PATH. If names is
// empty, every decoder and encoder the tool knows about is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"flac", "lame", "oggenc", "oggdec", "mac", "wvunpack", "mplayer", "shnsplit", "cuebreakpoints"}
		}
		for _, name := range names {
			b.stub(name, DefaultStub(name))
		}
	}
}

// WithStub installs a stub executable with a custom shell body.
func WithStub(name, script string) ConfigOption {
	return func(b *configBuilder) {
		b.stub(name, script)
	}
}

func (b *configBuilder) stub(name, script string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if b.cfg.Tools.Dir == "" {
		b.cfg.Tools.Dir = binDir
		prependPath(b.t, binDir)
	}
	StubBinary(b.t, binDir, name, script)
}

// StubBinary writes an executable shell script named name into dir.
func StubBinary(t testing.TB, dir, name, script string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

func prependPath(t testing.TB, dir string) {
	t.Helper()

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ScratchDir)
}
