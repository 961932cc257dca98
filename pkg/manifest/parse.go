// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/emanate/emanate/pkg/version"
)

type (
	rawManifest struct {
		Package           *rawPackage          `toml:"package"`
		Workspace         *rawWorkspace        `toml:"workspace"`
		Dependencies      map[string]any       `toml:"dependencies"`
		BuildDependencies map[string]any       `toml:"build-dependencies"`
		DevDependencies   map[string]any       `toml:"dev-dependencies"`
		Target            map[string]rawTarget `toml:"target"`
	}

	rawPackage struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"`
		Publish any    `toml:"publish"`
	}

	rawWorkspace struct {
		Members      []string       `toml:"members"`
		Exclude      []string       `toml:"exclude"`
		Package      map[string]any `toml:"package"`
		Dependencies map[string]any `toml:"dependencies"`
	}

	rawTarget struct {
		Dependencies      map[string]any `toml:"dependencies"`
		BuildDependencies map[string]any `toml:"build-dependencies"`
		DevDependencies   map[string]any `toml:"dev-dependencies"`
	}
)

// ParseWorkspace decodes the root workspace manifest found at path. The
// returned workspace has no members loaded yet. A root manifest that is also
// a package is exposed through Workspace.Root.
func ParseWorkspace(path string, data []byte) (*Workspace, error) {
	raw, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	if raw.Workspace == nil {
		return nil, &ParseError{Path: path, Err: errors.New("no [workspace] table")}
	}

	ws := &Workspace{
		ManifestPath: path,
		Dir:          filepath.Dir(path),
		Members:      raw.Workspace.Members,
		Exclude:      raw.Workspace.Exclude,
	}

	rawVersion, ok := raw.Workspace.Package["version"]
	if !ok {
		return nil, &MissingVersionError{Path: path}
	}
	s, ok := rawVersion.(string)
	if !ok {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("workspace.package.version must be a string, got %T", rawVersion)}
	}
	if ws.Version, err = version.Parse(s); err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("workspace.package.version: %w", err)}
	}

	if ws.Dependencies, err = dependencies(raw.Workspace.Dependencies, SectionNormal, ""); err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("workspace.dependencies: %w", err)}
	}
	for _, d := range ws.Dependencies {
		if d.Kind == KindWorkspace {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("workspace.dependencies.%s cannot inherit from the workspace", d.Name)}
		}
	}

	if raw.Package != nil {
		if ws.Root, err = newPackage(path, raw); err != nil {
			return nil, err
		}
	}

	return ws, nil
}

// ParsePackage decodes a member package manifest found at path.
func ParsePackage(path string, data []byte) (*Package, error) {
	raw, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	if raw.Package == nil {
		return nil, &ParseError{Path: path, Err: errors.New("no [package] table")}
	}
	return newPackage(path, raw)
}

func decode(path string, data []byte) (*rawManifest, error) {
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		perr := &ParseError{Path: path, Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return nil, perr
	}
	return &raw, nil
}

func newPackage(path string, raw *rawManifest) (*Package, error) {
	fail := func(format string, args ...any) error {
		return &ParseError{Path: path, Err: fmt.Errorf(format, args...)}
	}

	if strings.TrimSpace(raw.Package.Name) == "" {
		return nil, fail("package.name is required")
	}

	pkg := &Package{
		Name:         raw.Package.Name,
		ManifestPath: path,
		Dir:          filepath.Dir(path),
		Publish:      true,
	}

	switch v := raw.Package.Version.(type) {
	case nil:
		// Cargo treats a package without a version as unpublishable.
		pkg.Publish = false
	case string:
		pkg.Version = v
	case map[string]any:
		if !isWorkspaceRef(v) {
			return nil, fail("package.version table must be { workspace = true }")
		}
		pkg.InheritsVersion = true
	default:
		return nil, fail("package.version must be a string or { workspace = true }, got %T", v)
	}

	switch v := raw.Package.Publish.(type) {
	case nil:
	case bool:
		pkg.Publish = v
	case []any:
		pkg.Publish = len(v) > 0
	case map[string]any:
		if !isWorkspaceRef(v) {
			return nil, fail("package.publish table must be { workspace = true }")
		}
	default:
		return nil, fail("package.publish must be a boolean or a list of registries, got %T", v)
	}
	if pkg.Publish && raw.Package.Version == nil {
		return nil, fail("package.publish requires package.version")
	}

	type table struct {
		entries map[string]any
		section Section
		target  string
		label   string
	}
	tables := []table{
		{raw.Dependencies, SectionNormal, "", "dependencies"},
		{raw.BuildDependencies, SectionBuild, "", "build-dependencies"},
		{raw.DevDependencies, SectionDev, "", "dev-dependencies"},
	}
	for _, target := range sortedKeys(raw.Target) {
		t := raw.Target[target]
		tables = append(tables,
			table{t.Dependencies, SectionNormal, target, "target." + target + ".dependencies"},
			table{t.BuildDependencies, SectionBuild, target, "target." + target + ".build-dependencies"},
			table{t.DevDependencies, SectionDev, target, "target." + target + ".dev-dependencies"},
		)
	}

	for _, t := range tables {
		deps, err := dependencies(t.entries, t.section, t.target)
		if err != nil {
			return nil, fail("%s: %w", t.label, err)
		}
		if t.section == SectionDev {
			pkg.DevDependencies = append(pkg.DevDependencies, deps...)
		} else {
			pkg.Dependencies = append(pkg.Dependencies, deps...)
		}
	}

	return pkg, nil
}

// dependencies converts a decoded dependency table. TOML decoding does not
// preserve key order, so entries are returned sorted by name.
func dependencies(entries map[string]any, section Section, target string) ([]Dependency, error) {
	out := make([]Dependency, 0, len(entries))
	for _, name := range sortedKeys(entries) {
		d, err := dependency(name, entries[name])
		if err != nil {
			return nil, err
		}
		d.Section = section
		d.Target = target
		out = append(out, d)
	}
	return out, nil
}

func dependency(name string, value any) (Dependency, error) {
	d := Dependency{Name: name}

	switch v := value.(type) {
	case string:
		d.Kind = KindPinned
		d.Version = v
		return d, nil
	case map[string]any:
		for key, target := range map[string]*string{"version": &d.Version, "path": &d.Path, "git": &d.Git, "package": &d.Package} {
			raw, ok := v[key]
			if !ok {
				continue
			}
			s, ok := raw.(string)
			if !ok {
				return Dependency{}, fmt.Errorf("%s.%s must be a string, got %T", name, key, raw)
			}
			*target = s
		}

		switch {
		case isWorkspaceRef(v):
			d.Kind = KindWorkspace
		case d.Version != "":
			d.Kind = KindPinned
		case d.Git != "":
			d.Kind = KindGit
		case d.Path != "":
			d.Kind = KindPath
		default:
			return Dependency{}, fmt.Errorf("%s: expected one of version, path, git or workspace = true", name)
		}
		return d, nil
	default:
		return Dependency{}, fmt.Errorf("%s: expected a version string or a table, got %T", name, value)
	}
}

func isWorkspaceRef(table map[string]any) bool {
	b, ok := table["workspace"].(bool)
	return ok && b
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
