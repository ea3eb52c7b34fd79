package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrToolNotFound      = errors.New("tool not found")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrTagTransfer       = errors.New("tag transfer failed")
	ErrBoundExceeded     = errors.New("output name bound exceeded")
	ErrSameFormat        = errors.New("source already in target format")
	ErrCueNotFound       = errors.New("cue sheet not found")
	ErrConfiguration     = errors.New("configuration error")
)

// Stage names a step of the conversion pipeline.
type Stage string

const (
	StageDetect Stage = "detect"
	StageDecode Stage = "decode"
	StageSplit  Stage = "split"
	StageEncode Stage = "encode"
	StageVerify Stage = "verify"
	StageTags   Stage = "tags"
	StageOutput Stage = "output"
)

// ConversionError reports a failed pipeline stage, usually a subprocess that
// exited non-zero.
type ConversionError struct {
	Stage    Stage
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ConversionError) Error() string {
	var b strings.Builder
	b.WriteString("conversion failed: ")
	b.WriteString(string(e.Stage))
	if e.Tool != "" {
		b.WriteString(": ")
		b.WriteString(e.Tool)
	}
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		b.WriteString(" (")
		b.WriteString(lastLine(tail))
		b.WriteString(")")
	}
	return b.String()
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Is lets errors.Is match ConversionError against ErrConversionFailed.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversionFailed
}

// StageOf returns the failing stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr.Stage, true
	}
	return "", false
}

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker. The marker should be one of the sentinels above.
func Wrap(marker error, stage Stage, operation, message string, err error) error {
	detail := buildDetail(string(stage), operation, message)
	if marker == nil {
		marker = ErrConversionFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns a short label for summaries.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported format"
	case errors.Is(err, ErrToolNotFound):
		return "tool not found"
	case errors.Is(err, ErrBoundExceeded):
		return "name bound exceeded"
	case errors.Is(err, ErrSameFormat):
		return "same format"
	case errors.Is(err, ErrCueNotFound):
		return "cue sheet missing"
	case errors.Is(err, ErrConversionFailed):
		if stage, ok := StageOf(err); ok {
			return string(stage) + " failed"
		}
		return "conversion failed"
	default:
		return "error"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "conversion failure"
	}
	return strings.Join(parts, ": ")
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
