// SPDX-License-Identifier: MPL-2.0

// Package workspace locates a workspace manifest on disk and loads it
// together with every member package manifest.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emanate/emanate/pkg/manifest"
)

// ErrNotFound is returned by Locate when no manifest exists at the location.
var ErrNotFound = errors.New("workspace manifest not found")

// Locate resolves a user-supplied location to an absolute manifest path.
// An empty location means the current directory, a leading "~" expands to
// the home directory and a directory resolves to the Cargo.toml inside it.
func Locate(location string) (string, error) {
	path := location
	switch {
	case path == "":
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		path = wd
	case path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", location, err)
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
		info, err = os.Stat(path)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	return path, nil
}
