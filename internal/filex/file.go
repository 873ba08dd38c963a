// Package filex holds small filesystem helpers for files the client writes:
// the local store and exported notes.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureParentDir creates the directory that will hold the file at path and
// returns it as an absolute path. Paths without a directory part resolve to
// the working directory, which is never created.
func EnsureParentDir(path string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// Create makes the parent directory of path if needed and creates the file.
func Create(path string) (*os.File, error) {
	if _, err := EnsureParentDir(path); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// IsLocalPath reports whether dsn names a file on disk rather than an
// in-memory or URI-style SQLite database.
func IsLocalPath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}
