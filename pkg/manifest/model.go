// SPDX-License-Identifier: MPL-2.0

// Package manifest defines the typed model of a Cargo workspace: the root
// workspace manifest, its member package manifests and their dependency
// declarations. It only decodes bytes; locating and reading files is done by
// internal/workspace.
package manifest

import (
	"github.com/emanate/emanate/pkg/version"
)

// FileName is the manifest file name of every workspace and package.
const FileName = "Cargo.toml"

type (
	// DependencyKind classifies how a dependency declares its version.
	DependencyKind int

	// Section names the table a dependency was declared in.
	Section string

	// Dependency is a single entry of a dependency table.
	Dependency struct {
		// Name is the key used in the manifest. It differs from the package
		// name when the entry renames the dependency with `package = "..."`.
		Name string
		// Package is the real package name from a `package` key, if any.
		Package string
		Kind    DependencyKind
		// Version is the raw requirement string of a pinned dependency.
		Version string
		Path    string
		Git     string
		Section Section
		// Target is the cfg expression or triple of a [target.<cfg>] table.
		Target string
	}

	// Package is a member package manifest.
	Package struct {
		Name string
		// Version is the literal version declared by the package; empty when
		// it inherits the workspace version or declares none.
		Version         string
		InheritsVersion bool
		// Publish is false when the package opted out of publishing.
		Publish      bool
		ManifestPath string
		Dir          string
		// Dependencies holds normal, build and target-specific entries.
		Dependencies []Dependency
		// DevDependencies never influence publish order.
		DevDependencies []Dependency
	}

	// Workspace is the root workspace manifest plus its loaded members.
	Workspace struct {
		ManifestPath string
		Dir          string
		// Version is the canonical [workspace.package] version.
		Version version.Version
		// Members and Exclude are the patterns exactly as declared.
		Members []string
		Exclude []string
		// Dependencies is the [workspace.dependencies] table sorted by name.
		Dependencies []Dependency
		// Root is set when the root manifest is also a package.
		Root *Package
		// Packages are the loaded members in member declaration order.
		Packages []*Package
	}
)

const (
	// KindPinned carries an explicit version requirement.
	KindPinned DependencyKind = iota + 1
	// KindWorkspace inherits its declaration from [workspace.dependencies].
	KindWorkspace
	// KindPath points at a directory and has no version.
	KindPath
	// KindGit points at a git repository and has no version.
	KindGit
)

const (
	SectionNormal Section = "dependencies"
	SectionBuild  Section = "build-dependencies"
	SectionDev    Section = "dev-dependencies"
)

func (k DependencyKind) String() string {
	switch k {
	case KindPinned:
		return "pinned"
	case KindWorkspace:
		return "workspace"
	case KindPath:
		return "path"
	case KindGit:
		return "git"
	default:
		return "unknown"
	}
}

// EffectiveName returns the real package name, honoring renames.
func (d Dependency) EffectiveName() string {
	if d.Package != "" {
		return d.Package
	}
	return d.Name
}

// HasVersion reports whether the dependency carries a version requirement.
func (d Dependency) HasVersion() bool {
	return d.Version != ""
}

// AllDependencies returns normal, build, target and dev entries together.
func (p *Package) AllDependencies() []Dependency {
	all := make([]Dependency, 0, len(p.Dependencies)+len(p.DevDependencies))
	all = append(all, p.Dependencies...)
	return append(all, p.DevDependencies...)
}

// Eligible returns the publish-eligible packages in declaration order.
func (w *Workspace) Eligible() []*Package {
	var out []*Package
	for _, p := range w.Packages {
		if p.Publish {
			out = append(out, p)
		}
	}
	return out
}

// Package returns the loaded member with the given name, or nil.
func (w *Workspace) Package(name string) *Package {
	for _, p := range w.Packages {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Dependency returns the [workspace.dependencies] entry with the given key.
func (w *Workspace) Dependency(name string) (Dependency, bool) {
	for _, d := range w.Dependencies {
		if d.Name == name {
			return d, true
		}
	}
	return Dependency{}, false
}

// EffectiveName returns the package name d refers to, looking through
// [workspace.dependencies] for inherited entries.
func (w *Workspace) EffectiveName(d Dependency) string {
	if d.Kind == KindWorkspace && d.Package == "" {
		if entry, ok := w.Dependency(d.Name); ok {
			return entry.EffectiveName()
		}
	}
	return d.EffectiveName()
}

// ResolveRequirement returns the version requirement that d stands for.
// Workspace-inherited entries resolve through [workspace.dependencies]; when
// that entry has no version and names a workspace member, the canonical
// version is used. It reports a *MissingVersionError when nothing applies.
func (w *Workspace) ResolveRequirement(pkg string, d Dependency) (string, error) {
	missing := &MissingVersionError{Path: w.ManifestPath, Package: pkg, Dependency: d.Name}
	if p := w.Package(pkg); p != nil {
		missing.Path = p.ManifestPath
	}

	switch d.Kind {
	case KindPinned:
		return d.Version, nil
	case KindWorkspace:
		entry, ok := w.Dependency(d.Name)
		if ok && entry.HasVersion() {
			return entry.Version, nil
		}
		name := d.EffectiveName()
		if ok {
			name = entry.EffectiveName()
		}
		if w.Package(name) != nil {
			return w.Version.String(), nil
		}
		return "", missing
	default:
		return "", missing
	}
}
