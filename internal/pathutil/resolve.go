// Package pathutil provides path resolution helpers shared by the CLI
// commands: home expansion for user-typed paths and symlink-aware
// absolute resolution for config locations.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading ~ to the user's home directory. Paths
// without a ~ prefix pass through untouched, as do paths like ~user
// which Go cannot resolve portably.
func ExpandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Resolve converts a path to absolute form and resolves symlinks in the
// existing portion. Non-existent trailing components are kept as-is, so
// a config path whose directory is a symlink but whose file does not
// exist yet still resolves consistently.
func Resolve(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	path = ExpandHome(path)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	// Fast path: the whole path exists.
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved, nil
	}

	// Walk up to the deepest existing ancestor, resolve there, then
	// reattach the non-existent remainder.
	current := absPath
	var remainder []string

	for {
		if _, err := os.Stat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				resolved = current
			}
			for i := len(remainder) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, remainder[i])
			}
			return resolved, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return absPath, nil
		}
		remainder = append(remainder, filepath.Base(current))
		current = parent
	}
}
