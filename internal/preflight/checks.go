package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"audioconv/internal/deps"
	"audioconv/internal/formats"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// RequiredTools lists the binaries a run needs to convert the given source
// formats to target. Duplicates (lame decodes and encodes) are merged.
func RequiredTools(table *formats.Table, sources []formats.Format, target formats.Target, split bool) []deps.Requirement {
	var reqs []deps.Requirement
	seen := make(map[string]int)
	add := func(req deps.Requirement) {
		if req.Command == "" {
			return
		}
		if i, ok := seen[req.Command]; ok {
			reqs[i].Description += "; " + req.Description
			return
		}
		seen[req.Command] = len(reqs)
		reqs = append(reqs, req)
	}

	if enc, ok := table.Encoder(target); ok {
		add(deps.Requirement{
			Name:        enc.Tool,
			Command:     enc.Tool,
			Description: "Encodes " + target.String(),
		})
	}
	for _, f := range sources {
		entry, ok := table.Entry(f)
		if !ok || entry.Decoder.Mode == formats.DecodeNone {
			continue
		}
		add(deps.Requirement{
			Name:        entry.Decoder.Tool,
			Command:     entry.Decoder.Tool,
			Description: "Decodes " + entry.Label,
		})
	}
	if split {
		st := table.Split()
		add(deps.Requirement{Name: st.Breakpoints, Command: st.Breakpoints, Description: "Reads cue sheet breakpoints"})
		add(deps.Requirement{Name: st.Splitter, Command: st.Splitter, Description: "Splits disc images"})
	}
	return reqs
}

// AllTools lists every binary the tool knows about. Only the encoder for
// target is required; decoders and split helpers are optional because each
// serves a subset of inputs.
func AllTools(table *formats.Table, target formats.Target) []deps.Requirement {
	all := make([]formats.Format, 0, len(formats.All()))
	for _, entry := range table.Entries() {
		all = append(all, entry.Format)
	}
	reqs := RequiredTools(table, all, target, true)
	other := formats.TargetOgg
	if target == formats.TargetOgg {
		other = formats.TargetMP3
	}
	if enc, ok := table.Encoder(other); ok {
		found := false
		for i := range reqs {
			if reqs[i].Command == enc.Tool {
				reqs[i].Description += "; encodes " + other.String()
				found = true
			}
		}
		if !found {
			reqs = append(reqs, deps.Requirement{Name: enc.Tool, Command: enc.Tool, Description: "Encodes " + other.String()})
		}
	}
	for i := 1; i < len(reqs); i++ {
		reqs[i].Optional = true
	}
	return reqs
}

// CheckTools resolves requirements against toolsDir and PATH.
func CheckTools(reqs []deps.Requirement, toolsDir string) []deps.Status {
	return deps.CheckBinaries(reqs, toolsDir)
}

// Missing returns the required (non-optional) tools that are unavailable.
func Missing(statuses []deps.Status) []deps.Status {
	var out []deps.Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
