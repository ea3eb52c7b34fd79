package batch

import (
	"time"

	"audioconv/internal/convert"
)

// Summary collects the results of a run in input order.
type Summary struct {
	RunID   string
	Results []convert.Result
	Elapsed time.Duration
}

func (s *Summary) count(status convert.Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Converted returns the number of jobs that produced output.
func (s *Summary) Converted() int { return s.count(convert.StatusConverted) }

// Skipped returns the number of jobs skipped by policy.
func (s *Summary) Skipped() int { return s.count(convert.StatusSkipped) }

// Failed returns the number of failed jobs. Any failure makes the process
// exit non-zero.
func (s *Summary) Failed() int { return s.count(convert.StatusFailed) }

// Outputs returns every file written by the run.
func (s *Summary) Outputs() []string {
	var out []string
	for _, r := range s.Results {
		out = append(out, r.Outputs...)
	}
	return out
}
