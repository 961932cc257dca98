// SPDX-License-Identifier: MPL-2.0

// Package versionsync propagates a workspace version change to every
// manifest that references the canonical version: the workspace package
// version, internal [workspace.dependencies] entries and the internal
// dependency pins of member manifests.
package versionsync

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/emanate/emanate/pkg/manifest"
	"github.com/emanate/emanate/pkg/version"
)

type (
	// FileEdit is the planned rewrite of one manifest.
	FileEdit struct {
		Path     string
		Original []byte
		Updated  []byte
		Sites    []Site
	}

	// Result is a computed version change. Nothing is written until Apply.
	Result struct {
		Previous version.Version
		Next     version.Version
		Files    []FileEdit
	}
)

// Changed reports whether applying the edit modifies the file.
func (f FileEdit) Changed() bool {
	return !bytes.Equal(f.Original, f.Updated)
}

// Changed returns the edits that modify their file.
func (r *Result) Changed() []FileEdit {
	var out []FileEdit
	for _, f := range r.Files {
		if f.Changed() {
			out = append(out, f)
		}
	}
	return out
}

// Plan computes the rewritten contents of the workspace manifest and every
// member manifest for change without touching the filesystem.
//
// A member is internal when it inherits the workspace version; only
// references to internal members are rewritten. Internal workspace entries
// without a version, and pins that cannot be rewritten safely, are logged as
// warnings.
func Plan(ws *manifest.Workspace, change version.Change, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	res := &Result{Previous: ws.Version, Next: change.Apply(ws.Version)}

	internal := make(map[string]bool)
	for _, p := range ws.Packages {
		if p.InheritsVersion {
			internal[p.Name] = true
		}
	}

	root := &rules{next: res.Next, packageVersion: true, workspaceKeys: make(map[string]bool)}
	for _, d := range ws.Dependencies {
		if !internal[d.EffectiveName()] {
			continue
		}
		if !d.HasVersion() {
			logger.Warn("workspace dependency has no version", "dependency", d.Name, "manifest", ws.ManifestPath)
			continue
		}
		root.workspaceKeys[d.Name] = true
	}
	if ws.Root != nil {
		root.dependencyKeys = pinnedKeys(ws, ws.Root, internal)
	}

	edit, err := planFile(ws.ManifestPath, root, logger)
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, edit)

	for _, p := range ws.Packages {
		if p == ws.Root {
			continue
		}
		keys := pinnedKeys(ws, p, internal)
		if len(keys) == 0 {
			continue
		}
		edit, err := planFile(p.ManifestPath, &rules{next: res.Next, dependencyKeys: keys}, logger)
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, edit)
	}

	return res, nil
}

func pinnedKeys(ws *manifest.Workspace, p *manifest.Package, internal map[string]bool) map[string]bool {
	keys := make(map[string]bool)
	for _, d := range p.AllDependencies() {
		if d.Kind == manifest.KindPinned && internal[ws.EffectiveName(d)] {
			keys[d.Name] = true
		}
	}
	return keys
}

func planFile(path string, r *rules, logger *log.Logger) (FileEdit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileEdit{}, &RewriteIOError{Path: path, Op: "read", Err: err}
	}
	updated, sites, skipped, err := r.rewrite(data)
	if err != nil {
		return FileEdit{}, &RewriteIOError{Path: path, Op: "parse", Err: err}
	}
	for _, s := range skipped {
		logger.Warn("leaving version requirement unchanged", "key", s.Key, "requirement", s.Old, "manifest", path)
	}
	for _, s := range sites {
		logger.Debug("rewriting version", "manifest", path, "key", s.Key, "from", s.Old, "to", s.New)
	}
	return FileEdit{Path: path, Original: data, Updated: updated, Sites: sites}, nil
}

// Apply persists every changed file of res. All new contents are staged to
// temporary files next to their targets before any target is replaced; each
// target is then replaced by an atomic rename. Unchanged files are not
// touched, so applying the same literal version twice is a no-op.
func Apply(res *Result) error {
	changed := res.Changed()

	staged := make([]string, 0, len(changed))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp) // best-effort
		}
	}

	for _, f := range changed {
		tmp, err := stage(f)
		if err != nil {
			cleanup()
			return &RewriteIOError{Path: f.Path, Op: "stage", Err: err}
		}
		staged = append(staged, tmp)
	}

	for i, f := range changed {
		if err := os.Rename(staged[i], f.Path); err != nil {
			staged = staged[i:]
			cleanup()
			return &RewriteIOError{Path: f.Path, Op: "replace", Err: errors.Join(err, restore(changed[:i]))}
		}
	}
	return nil
}

// restore writes back the original contents of files that were already
// replaced.
func restore(replaced []FileEdit) error {
	var errs []error
	for _, f := range replaced {
		tmp, err := stage(FileEdit{Path: f.Path, Updated: f.Original})
		if err != nil {
			errs = append(errs, fmt.Errorf("restoring %s: %w", f.Path, err))
			continue
		}
		if err := os.Rename(tmp, f.Path); err != nil {
			_ = os.Remove(tmp) // best-effort
			errs = append(errs, fmt.Errorf("restoring %s: %w", f.Path, err))
		}
	}
	return errors.Join(errs...)
}

func stage(f FileEdit) (string, error) {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(f.Path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.Path), "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return "", err
	}
	_, werr := tmp.Write(f.Updated)
	serr := tmp.Sync()
	cerr := tmp.Close()
	if err := errors.Join(werr, serr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Sync plans and applies change in one step.
func Sync(ws *manifest.Workspace, change version.Change, logger *log.Logger) (*Result, error) {
	res, err := Plan(ws, change, logger)
	if err != nil {
		return nil, err
	}
	if err := Apply(res); err != nil {
		return nil, err
	}
	return res, nil
}
