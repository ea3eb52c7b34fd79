package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audioconv/internal/faults"
	"audioconv/internal/testsupport"
)

func stub(t *testing.T, name, script string) string {
	t.Helper()
	return testsupport.StubBinary(t, t.TempDir(), name, script)
}

func TestRunCapturesStdout(t *testing.T) {
	path := stub(t, "hello", "printf 'pcm:%s' \"$1\"\n")
	var out bytes.Buffer
	exec := NewCommandExecutor(0, nil)

	err := exec.Run(context.Background(), Invocation{
		Stage:  faults.StageDecode,
		Tool:   "hello",
		Path:   path,
		Args:   []string{"track.flac"},
		Stdout: &out,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "pcm:track.flac" {
		t.Fatalf("unexpected stdout %q", out.String())
	}
}

func TestRunReportsConversionError(t *testing.T) {
	path := stub(t, "flac", testsupport.FailingStub)
	exec := NewCommandExecutor(0, nil)

	err := exec.Run(context.Background(), Invocation{Stage: faults.StageDecode, Tool: "flac", Path: path})
	if !errors.Is(err, faults.ErrConversionFailed) {
		t.Fatalf("expected ErrConversionFailed, got %v", err)
	}
	var convErr *faults.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected *ConversionError, got %T", err)
	}
	if convErr.Stage != faults.StageDecode || convErr.ExitCode != 2 {
		t.Fatalf("unexpected error fields: %+v", convErr)
	}
	if !strings.Contains(convErr.Stderr, "corrupt input stream") {
		t.Fatalf("stderr tail missing: %q", convErr.Stderr)
	}
}

func TestRunMissingBinaryIsToolNotFound(t *testing.T) {
	exec := NewCommandExecutor(0, nil)
	err := exec.Run(context.Background(), Invocation{
		Stage: faults.StageEncode,
		Tool:  "oggenc",
		Path:  filepath.Join(t.TempDir(), "oggenc"),
	})
	if !errors.Is(err, faults.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRunTimeout(t *testing.T) {
	path := stub(t, "slow", "exec sleep 5\n")
	exec := &CommandExecutor{Timeout: 100 * time.Millisecond}

	start := time.Now()
	err := exec.Run(context.Background(), Invocation{Stage: faults.StageEncode, Tool: "slow", Path: path})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatalf("timeout not enforced, took %s", time.Since(start))
	}
}

func TestPipedStreamsProducerIntoConsumer(t *testing.T) {
	producer := stub(t, "dec", "printf 'RIFFdata'\n")
	consumer := stub(t, "enc", "cat > \"$1\"\n")
	out := filepath.Join(t.TempDir(), "out.ogg")
	exec := NewCommandExecutor(0, nil)

	err := exec.Piped(context.Background(),
		Invocation{Stage: faults.StageDecode, Tool: "dec", Path: producer},
		Invocation{Stage: faults.StageEncode, Tool: "enc", Path: consumer, Args: []string{out}},
	)
	if err != nil {
		t.Fatalf("Piped: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "RIFFdata" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestPipedBlamesFailingProducer(t *testing.T) {
	producer := stub(t, "dec", testsupport.FailingStub)
	consumer := stub(t, "enc", "cat > /dev/null\n")
	exec := NewCommandExecutor(0, nil)

	err := exec.Piped(context.Background(),
		Invocation{Stage: faults.StageDecode, Tool: "dec", Path: producer},
		Invocation{Stage: faults.StageEncode, Tool: "enc", Path: consumer},
	)
	stage, ok := faults.StageOf(err)
	if !ok || stage != faults.StageDecode {
		t.Fatalf("expected decode failure, got %v", err)
	}
}

func TestPipedBlamesProducerWhenConsumerFailsOnTruncatedStream(t *testing.T) {
	producer := stub(t, "dec", testsupport.FailingStub)
	consumer := stub(t, "enc", "cat > /dev/null\nexit 1\n")
	exec := NewCommandExecutor(0, nil)

	for i := range 100 {
		err := exec.Piped(context.Background(),
			Invocation{Stage: faults.StageDecode, Tool: "dec", Path: producer},
			Invocation{Stage: faults.StageEncode, Tool: "enc", Path: consumer},
		)
		var convErr *faults.ConversionError
		if !errors.As(err, &convErr) {
			t.Fatalf("run %d: expected ConversionError, got %v", i, err)
		}
		if convErr.Stage != faults.StageDecode || convErr.ExitCode != 2 {
			t.Fatalf("run %d: expected decode failure with status 2, got %v", i, err)
		}
	}
}

func TestPipedKilledProducerIsNotBlamed(t *testing.T) {
	producer := stub(t, "dec", "trap '' PIPE\nsleep 30\n")
	consumer := stub(t, "enc", "exit 4\n")
	exec := NewCommandExecutor(0, nil)

	start := time.Now()
	err := exec.Piped(context.Background(),
		Invocation{Stage: faults.StageDecode, Tool: "dec", Path: producer},
		Invocation{Stage: faults.StageEncode, Tool: "enc", Path: consumer},
	)
	var convErr *faults.ConversionError
	if !errors.As(err, &convErr) || convErr.Stage != faults.StageEncode || convErr.ExitCode != 4 {
		t.Fatalf("expected encode failure with status 4, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("producer outlived the pipeline: %s", elapsed)
	}
}

func TestPipedBlamesConsumerOverBrokenPipe(t *testing.T) {
	producer := stub(t, "dec", "while :; do echo frame; done\n")
	consumer := stub(t, "enc", "echo 'enc: bad quality' >&2\nexit 3\n")
	exec := NewCommandExecutor(0, nil)

	err := exec.Piped(context.Background(),
		Invocation{Stage: faults.StageDecode, Tool: "dec", Path: producer},
		Invocation{Stage: faults.StageEncode, Tool: "enc", Path: consumer},
	)
	var convErr *faults.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if convErr.Stage != faults.StageEncode || convErr.ExitCode != 3 {
		t.Fatalf("expected encode failure with status 3, got %+v", convErr)
	}
	if !strings.Contains(err.Error(), "bad quality") {
		t.Fatalf("error should carry stderr tail: %v", err)
	}
}

func TestTailBufferKeepsLastBytes(t *testing.T) {
	tail := &tailBuffer{limit: 8}
	_, _ = tail.Write([]byte("0123456789"))
	_, _ = tail.Write([]byte("ab"))
	if got := tail.String(); got != "456789ab" {
		t.Fatalf("unexpected tail %q", got)
	}
}
