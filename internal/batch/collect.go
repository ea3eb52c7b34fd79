package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Collect expands args into a list of source files. Files named directly
// are kept as given, even when missing or unsupported, so they surface as
// failed jobs. Directories contribute the files whose base name matches
// pattern, or, when pattern is empty, those accepted by known. Only the top
// level is read unless recursive is set. Hidden files are ignored.
func Collect(args []string, recursive bool, pattern string, known func(path string) bool) ([]string, error) {
	if pattern != "" {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}
	accept := func(path string) bool {
		name := filepath.Base(path)
		if strings.HasPrefix(name, ".") {
			return false
		}
		if pattern != "" {
			ok, _ := filepath.Match(pattern, name)
			return ok
		}
		return known == nil || known(path)
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		key := filepath.Clean(path)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			add(arg)
			continue
		}
		files, err := walk(arg, recursive)
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			if accept(path) {
				add(path)
			}
		}
	}
	return out, nil
}

func walk(root string, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", root, err)
		}
		var files []string
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				files = append(files, filepath.Join(root, entry.Name()))
			}
		}
		return files, nil
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) && path != root {
				return nil
			}
			return err
		}
		if d.IsDir() && path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
