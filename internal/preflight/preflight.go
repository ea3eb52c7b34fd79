package preflight

import (
	"audioconv/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir)}
	if cfg.Output.Dir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Output.Dir))
	}
	if cfg.Tools.Dir != "" {
		results = append(results, CheckDirectoryAccess("Tools directory", cfg.Tools.Dir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
