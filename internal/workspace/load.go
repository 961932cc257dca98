// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/emanate/emanate/pkg/manifest"
)

// Load reads the workspace manifest at manifestPath and every member
// manifest it declares. Member manifests are read concurrently; the first
// failure cancels the remaining reads and no partial workspace is returned.
// Members that opted out of publishing are kept in Workspace.Packages but are
// logged as skipped.
func Load(ctx context.Context, manifestPath string, logger *log.Logger) (*manifest.Workspace, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &manifest.ParseError{Path: manifestPath, Err: err}
	}
	ws, err := manifest.ParseWorkspace(manifestPath, data)
	if err != nil {
		return nil, err
	}

	dirs, err := expandMembers(ws, logger)
	if err != nil {
		return nil, err
	}

	packages := make([]*manifest.Package, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pkg, err := loadPackage(filepath.Join(dir, manifest.FileName))
			if err != nil {
				return err
			}
			packages[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if ws.Root != nil {
		packages = append([]*manifest.Package{ws.Root}, packages...)
	}

	seen := make(map[string]*manifest.Package, len(packages))
	for _, pkg := range packages {
		if prev, ok := seen[pkg.Name]; ok {
			return nil, &manifest.ParseError{
				Path: pkg.ManifestPath,
				Err:  fmt.Errorf("duplicate package name %q, also declared in %s", pkg.Name, prev.ManifestPath),
			}
		}
		seen[pkg.Name] = pkg

		if pkg.Publish && pkg.Version != "" {
			return nil, &manifest.VersionOverrideError{Path: pkg.ManifestPath, Package: pkg.Name, Version: pkg.Version}
		}
		if !pkg.Publish {
			logger.Info("skipping "+pkg.Name, "reason", "publishing disabled")
		}
	}

	ws.Packages = packages
	logger.Debug("loaded workspace", "manifest", manifestPath, "version", ws.Version, "members", len(packages))
	return ws, nil
}

func loadPackage(manifestPath string) (*manifest.Package, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &manifest.ParseError{Path: manifestPath, Err: err}
	}
	return manifest.ParsePackage(manifestPath, data)
}

// expandMembers resolves the member patterns to member directories in
// declaration order. Literal members must exist; glob matches without a
// manifest are ignored. The root directory is never returned since the root
// package, if any, is loaded together with the workspace.
func expandMembers(ws *manifest.Workspace, logger *log.Logger) ([]string, error) {
	fsys := os.DirFS(ws.Dir)

	excluded := func(rel string) (bool, error) {
		for _, pattern := range ws.Exclude {
			pattern = cleanPattern(pattern)
			if pattern == rel || strings.HasPrefix(rel, pattern+"/") {
				return true, nil
			}
			ok, err := doublestar.Match(pattern, rel)
			if err != nil {
				return false, &manifest.ParseError{Path: ws.ManifestPath, Err: fmt.Errorf("workspace.exclude: %w", err)}
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	var dirs []string
	for _, pattern := range ws.Members {
		pattern = cleanPattern(pattern)

		var matches []string
		if isGlob(pattern) {
			found, err := doublestar.Glob(fsys, pattern)
			if err != nil {
				return nil, &manifest.ParseError{Path: ws.ManifestPath, Err: fmt.Errorf("workspace.members %q: %w", pattern, err)}
			}
			for _, rel := range found {
				if _, err := os.Stat(filepath.Join(ws.Dir, filepath.FromSlash(rel), manifest.FileName)); err != nil {
					logger.Debug("ignoring member match without manifest", "path", rel)
					continue
				}
				matches = append(matches, rel)
			}
		} else {
			matches = []string{pattern}
		}

		for _, rel := range matches {
			if rel == "." {
				continue
			}
			skip, err := excluded(rel)
			if err != nil {
				return nil, err
			}
			if skip {
				logger.Debug("excluding member", "path", rel)
				continue
			}
			dir := filepath.Join(ws.Dir, filepath.FromSlash(rel))
			if !slices.Contains(dirs, dir) {
				dirs = append(dirs, dir)
			}
		}
	}

	return dirs, nil
}

func cleanPattern(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
