package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"audioconv/internal/faults"
	"audioconv/internal/logging"
)

const (
	stderrTailBytes = 4096
	waitDelay       = 2 * time.Second
	// exit status a shell reports for a child killed by SIGPIPE.
	shellSIGPIPEStatus = 128 + int(syscall.SIGPIPE)
)

// Invocation describes a single external process.
type Invocation struct {
	Stage  faults.Stage
	Tool   string
	Path   string
	Args   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
}

func (inv Invocation) binary() string {
	if inv.Path != "" {
		return inv.Path
	}
	return inv.Tool
}

// String renders the command line for logs.
func (inv Invocation) String() string {
	return strings.TrimSpace(inv.Tool + " " + strings.Join(inv.Args, " "))
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, inv Invocation) error
	Piped(ctx context.Context, producer, consumer Invocation) error
}

// CommandExecutor runs invocations with os/exec.
type CommandExecutor struct {
	// Timeout bounds each Run or Piped call. Zero disables it.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewCommandExecutor constructs an executor with a per-call timeout in seconds.
func NewCommandExecutor(timeoutSeconds int, logger *slog.Logger) *CommandExecutor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CommandExecutor{
		Timeout: time.Duration(timeoutSeconds) * time.Second,
		Logger:  logger,
	}
}

func (e *CommandExecutor) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

func (e *CommandExecutor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e != nil && e.Timeout > 0 {
		return context.WithTimeout(ctx, e.Timeout)
	}
	return context.WithCancel(ctx)
}

// Run executes inv and waits for it.
func (e *CommandExecutor) Run(ctx context.Context, inv Invocation) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	cmd, tail := command(ctx, inv)
	cmd.Stdin = inv.Stdin
	cmd.Stdout = inv.Stdout

	logging.WithContext(ctx, e.logger()).Debug("running tool",
		logging.String("tool", inv.Tool),
		logging.String("command", inv.String()),
	)
	if err := cmd.Run(); err != nil {
		return conversionError(ctx, inv, err, tail)
	}
	return nil
}

// Piped runs producer | consumer. The first failure cancels the other
// process. Blame follows each process's own exit status: a producer that
// exited non-zero by itself is blamed even when the consumer failed on the
// truncated stream, while a producer that only died of a broken pipe, or was
// killed because the consumer failed, is not.
func (e *CommandExecutor) Piped(ctx context.Context, producer, consumer Invocation) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	// procCtx is cancelled on the first failure; ctx only reports timeouts
	// and caller cancellation.
	procCtx, stop := context.WithCancel(ctx)
	defer stop()

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create pipe: %w", err)
	}

	prod, prodTail := command(procCtx, producer)
	prod.Stdin = producer.Stdin
	prod.Stdout = pw
	var prodCancelled atomic.Bool
	prod.Cancel = func() error {
		prodCancelled.Store(true)
		return prod.Process.Kill()
	}
	cons, consTail := command(procCtx, consumer)
	cons.Stdin = pr
	cons.Stdout = consumer.Stdout

	logging.WithContext(ctx, e.logger()).Debug("running pipeline",
		logging.String("producer", producer.String()),
		logging.String("consumer", consumer.String()),
	)

	if err := prod.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return conversionError(ctx, producer, err, prodTail)
	}
	if err := cons.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		stop()
		_ = prod.Wait()
		return conversionError(ctx, consumer, err, consTail)
	}
	// Only the children may hold the pipe now, so EOF and EPIPE propagate.
	_ = pr.Close()
	_ = pw.Close()

	type waitResult struct {
		producer bool
		err      error
	}
	results := make(chan waitResult, 2)
	go func() { results <- waitResult{producer: true, err: prod.Wait()} }()
	go func() { results <- waitResult{producer: false, err: cons.Wait()} }()

	var prodErr, consErr error
	stoppedForConsumer := false
	stopped := false
	for range 2 {
		res := <-results
		if res.producer {
			prodErr = res.err
		} else {
			consErr = res.err
		}
		if res.err != nil && !stopped {
			stopped = true
			stoppedForConsumer = !res.producer
			stop()
		}
	}

	killedForConsumer := stoppedForConsumer && prodCancelled.Load() && signaled(prodErr)
	switch {
	case prodErr != nil && !(consErr != nil && (brokenPipe(prodErr) || killedForConsumer)):
		return conversionError(ctx, producer, prodErr, prodTail)
	case consErr != nil:
		return conversionError(ctx, consumer, consErr, consTail)
	}
	return nil
}

func command(ctx context.Context, inv Invocation) (*exec.Cmd, *tailBuffer) {
	cmd := exec.CommandContext(ctx, inv.binary(), inv.Args...) //nolint:gosec
	cmd.Dir = inv.Dir
	cmd.WaitDelay = waitDelay
	tail := &tailBuffer{limit: stderrTailBytes}
	cmd.Stderr = tail
	return cmd, tail
}

func conversionError(ctx context.Context, inv Invocation, err error, tail *tailBuffer) error {
	convErr := &faults.ConversionError{
		Stage:  inv.Stage,
		Tool:   inv.Tool,
		Stderr: tail.String(),
	}
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		convErr.ExitCode = exitErr.ExitCode()
		if ctxErr := ctx.Err(); ctxErr != nil {
			convErr.Err = ctxErr
		} else if convErr.ExitCode < 0 {
			convErr.Err = err
		}
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return faults.Wrap(faults.ErrToolNotFound, inv.Stage, "start", inv.Tool, err)
	default:
		convErr.Err = err
	}
	return convErr
}

// signaled reports whether the process was terminated by a signal rather
// than exiting with a status of its own.
func signaled(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	return ok && status.Signaled()
}

func brokenPipe(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return status.Signal() == syscall.SIGPIPE
	}
	return exitErr.ExitCode() == shellSIGPIPEStatus
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	if t == nil {
		return ""
	}
	return strings.TrimSpace(string(t.buf))
}
