package batch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
)

// dirLocks holds advisory locks for every output directory of a run.
type dirLocks struct {
	locks []*flock.Flock
}

// lockPath maps an output directory to its lock file in the OS temp dir.
func lockPath(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	sum := sha256.Sum256([]byte(filepath.Clean(dir)))
	return filepath.Join(os.TempDir(), "audioconv-"+hex.EncodeToString(sum[:8])+".lock")
}

// lockDirs takes the locks in a stable order and fails fast if another run
// holds any of them.
func lockDirs(dirs []string) (*dirLocks, error) {
	unique := make(map[string]string, len(dirs))
	for _, dir := range dirs {
		unique[lockPath(dir)] = dir
	}
	paths := make([]string, 0, len(unique))
	for path := range unique {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	held := &dirLocks{}
	for _, path := range paths {
		lock := flock.New(path)
		ok, err := lock.TryLock()
		if err != nil {
			held.release()
			return nil, fmt.Errorf("acquire lock for %s: %w", unique[path], err)
		}
		if !ok {
			held.release()
			return nil, fmt.Errorf("another audioconv run is writing to %s", unique[path])
		}
		held.locks = append(held.locks, lock)
	}
	return held, nil
}

func (d *dirLocks) release() {
	if d == nil {
		return
	}
	for i := len(d.locks) - 1; i >= 0; i-- {
		_ = d.locks[i].Unlock()
	}
	d.locks = nil
}
