package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audioconv/internal/config"
	"audioconv/internal/formats"
	"audioconv/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_ChecksConfiguredDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOutputDir())
	cfg.Tools.Dir = filepath.Join(t.TempDir(), "missing-bin")

	results := RunAll(cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Tools directory" {
		t.Fatalf("expected only the tools dir to fail, got %+v", failed)
	}
}

func TestRequiredToolsMergesDuplicates(t *testing.T) {
	table := formats.NewTable(config.Default().Tools)
	reqs := RequiredTools(table, []formats.Format{formats.MP3, formats.FLAC, formats.WAVE, formats.FLAC}, formats.TargetMP3, false)

	var names []string
	for _, r := range reqs {
		names = append(names, r.Command)
	}
	if strings.Join(names, ",") != "lame,flac" {
		t.Fatalf("unexpected requirements %v", names)
	}
	if !strings.Contains(reqs[0].Description, "Decodes") {
		t.Fatalf("lame should describe both roles, got %q", reqs[0].Description)
	}
}

func TestRequiredToolsForSplit(t *testing.T) {
	table := formats.NewTable(config.Default().Tools)
	reqs := RequiredTools(table, []formats.Format{formats.WAVE}, formats.TargetOgg, true)

	var names []string
	for _, r := range reqs {
		names = append(names, r.Command)
	}
	if strings.Join(names, ",") != "oggenc,cuebreakpoints,shnsplit" {
		t.Fatalf("unexpected requirements %v", names)
	}
}

func TestAllToolsMarksOnlyTargetEncoderRequired(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("oggenc"))
	table := formats.NewTable(cfg.Tools)

	reqs := AllTools(table, formats.TargetOgg)
	if len(reqs) < 8 {
		t.Fatalf("expected every tool listed, got %d", len(reqs))
	}
	if reqs[0].Command != "oggenc" || reqs[0].Optional {
		t.Fatalf("oggenc should be the required entry, got %+v", reqs[0])
	}

	statuses := CheckTools(reqs, cfg.Tools.Dir)
	if missing := Missing(statuses); len(missing) != 0 {
		t.Fatalf("only optional tools may be missing, got %+v", missing)
	}
}
