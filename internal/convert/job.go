package convert

import (
	"time"

	"audioconv/internal/formats"
)

// Job is a single conversion request. Jobs share no mutable state.
type Job struct {
	ID      string
	Source  string
	Format  formats.Format
	Target  formats.Target
	Quality int
	Split   bool
	// Output is the published output path, filled in on the Result. Split
	// jobs record their first track; Result.Outputs lists every track.
	Output string
}

// Status is the outcome of a job.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result reports what happened to a job.
type Result struct {
	Job      Job
	Status   Status
	Outputs  []string
	Err      error
	Duration time.Duration
}

// Failed reports whether the job counts as a failure.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}
