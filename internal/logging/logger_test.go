package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audioconv/internal/config"
	"audioconv/internal/jobctx"
	"audioconv/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "audioconv.log")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello", logging.String("k", "v"))

	content, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello k=v") {
		t.Fatalf("expected console line in log file, got %q", content)
	}
}

func TestConsoleLoggerPrefixesComponentAndJob(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := jobctx.WithJobID(jobctx.WithRunID(context.Background(), "run-abc"), "0123456789abcdef")
	component := logging.NewComponentLogger(logger, "convert")
	logging.WithContext(ctx, component).Info("encoded", logging.String("output", "/music/a b.ogg"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "convert[01234567]: encoded") {
		t.Fatalf("expected component/job prefix, got %q", line)
	}
	if !strings.Contains(line, `output="/music/a b.ogg"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
	if strings.Contains(line, "run-abc") {
		t.Fatalf("console output should omit run id, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestJSONLoggerKeepsContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := jobctx.WithStage(jobctx.WithRunID(context.Background(), "run-1"), "decode")
	logging.WithContext(ctx, logger).Debug("starting decoder")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("decode json log %q: %v", content, err)
	}
	if record["level"] != "debug" || record["run_id"] != "run-1" || record["stage"] != "decode" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
	if src, _ := record["source"].(string); !strings.Contains(src, ".go:") {
		t.Fatalf("expected source at debug level, got %v", record["source"])
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Level: "warn", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")

	content, _ := os.ReadFile(logPath)
	if strings.Contains(string(content), "dropped") || !strings.Contains(string(content), "kept") {
		t.Fatalf("unexpected filtering result %q", content)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("noop logger should never be enabled")
	}
	logger.Error("ignored")
}
