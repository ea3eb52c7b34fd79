// Package naming computes output file names that never overwrite existing
// files or collide with names reserved by other jobs of the same run.
package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"audioconv/internal/faults"
)

// DefaultMarker is inserted before the extension when a name is taken.
const DefaultMarker = "_encoded_"

// Namer hands out collision-free output paths.
type Namer struct {
	dir         string
	marker      string
	maxAttempts int

	mu       sync.Mutex
	reserved map[string]struct{}
	exists   func(string) (bool, error)
}

// Option configures a Namer.
type Option func(*Namer)

// WithOutputDir writes every output into dir instead of next to its source.
func WithOutputDir(dir string) Option {
	return func(n *Namer) {
		n.dir = strings.TrimSpace(dir)
	}
}

// WithMarker overrides DefaultMarker.
func WithMarker(marker string) Option {
	return func(n *Namer) {
		if marker != "" {
			n.marker = marker
		}
	}
}

// WithMaxAttempts bounds the number of candidates tried per name.
func WithMaxAttempts(limit int) Option {
	return func(n *Namer) {
		if limit > 0 {
			n.maxAttempts = limit
		}
	}
}

// New constructs a Namer.
func New(opts ...Option) *Namer {
	n := &Namer{
		marker:      DefaultMarker,
		maxAttempts: 100,
		reserved:    make(map[string]struct{}),
		exists:      pathExists,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Candidate returns the attempt-th name for base+ext inside dir. Attempt 0 is
// the plain name, 1 carries the bare marker, later attempts number it.
func Candidate(dir, base, marker, ext string, attempt int) string {
	switch attempt {
	case 0:
		return filepath.Join(dir, base+ext)
	case 1:
		return filepath.Join(dir, base+marker+ext)
	default:
		return filepath.Join(dir, base+marker+strconv.Itoa(attempt)+ext)
	}
}

// Dir returns the directory outputs for source are written to.
func (n *Namer) Dir(source string) string {
	if n.dir != "" {
		return n.dir
	}
	return filepath.Dir(source)
}

// Reserve returns a free path for source converted to ext and holds it until
// Release. A path is free when it neither exists nor is reserved.
func (n *Namer) Reserve(source, ext string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return n.ReserveName(n.Dir(source), base, ext)
}

// ReserveName is Reserve for an explicit directory and base name.
func (n *Namer) ReserveName(dir, base, ext string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for attempt := 0; attempt < n.maxAttempts; attempt++ {
		candidate := Candidate(dir, base, n.marker, ext, attempt)
		key := filepath.Clean(candidate)
		if _, taken := n.reserved[key]; taken {
			continue
		}
		exists, err := n.exists(candidate)
		if err != nil {
			return "", fmt.Errorf("check %s: %w", candidate, err)
		}
		if exists {
			continue
		}
		n.reserved[key] = struct{}{}
		return candidate, nil
	}
	return "", fmt.Errorf("%w: no free name for %s%s in %s after %d attempts", faults.ErrBoundExceeded, base, ext, dir, n.maxAttempts)
}

// Release frees a reservation. Releasing a path that was written is harmless
// because the file itself now blocks the name.
func (n *Namer) Release(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.reserved, filepath.Clean(path))
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
