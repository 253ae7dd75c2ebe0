// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// GlobAll expands each pattern and returns the union of matches, sorted. An
// empty result is an error: a diagnostics run with no input files is a
// configuration problem, not an empty success.
func GlobAll(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %v", patterns)
	}
	sort.Strings(files)
	return files, nil
}

// EnsureDir creates dir (and parents) when missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
