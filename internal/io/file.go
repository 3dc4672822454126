// Package ioutils provides small filesystem and image helpers shared
// by the recording pipeline.
package ioutils

import (
	"context"
	"os"
)

// WriteFile writes data to a file with mode 0644, truncating any
// existing content.
func WriteFile(ctx context.Context, path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// RemoveAll removes every named file, ignoring files that are already
// gone. Used for temp-chunk cleanup, which must run on every job exit
// path.
func RemoveAll(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		_ = os.Remove(p)
	}
}
