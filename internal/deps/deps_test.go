package deps

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"audioconv/internal/faults"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, executableName(name))
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs, "")
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command status: %#v", results[2])
	}
}

func TestResolvePrefersToolsDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX system")
	}
	toolsDir := t.TempDir()
	pathDir := t.TempDir()
	preferred := writeStub(t, toolsDir, "oggenc")
	writeStub(t, pathDir, "oggenc")
	t.Setenv("PATH", pathDir)

	got, err := Resolve("oggenc", toolsDir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != preferred {
		t.Fatalf("expected tools dir binary %q, got %q", preferred, got)
	}
}

func TestResolveFallsBackToPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX system")
	}
	pathDir := t.TempDir()
	want := writeStub(t, pathDir, "flac")
	t.Setenv("PATH", pathDir)

	got, err := Resolve("flac", t.TempDir())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Fatalf("expected PATH binary %q, got %q", want, got)
	}
}

func TestResolveMissingIsToolNotFound(t *testing.T) {
	t.Setenv("PATH", "")
	_, err := Resolve("mac", "")
	if !errors.Is(err, faults.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}
