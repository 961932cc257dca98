// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrManifestParse is the sentinel matched by every ParseError.
	ErrManifestParse = errors.New("manifest parse error")
	// ErrMissingVersion is the sentinel matched by every MissingVersionError.
	ErrMissingVersion = errors.New("missing version")
	// ErrVersionOverride is the sentinel matched by every VersionOverrideError.
	ErrVersionOverride = errors.New("version override")
)

type (
	// ParseError reports a manifest that could not be read or is structurally
	// invalid. Line and Column are set when the TOML decoder reported them.
	ParseError struct {
		Path   string
		Line   int
		Column int
		Err    error
	}

	// MissingVersionError reports a version that must be present but is not:
	// the workspace canonical version, or the requirement of a dependency
	// that has to be resolvable against the registry.
	MissingVersionError struct {
		Path       string
		Package    string
		Dependency string
	}

	// VersionOverrideError reports a publish-eligible member declaring its
	// own literal version instead of inheriting the workspace version.
	VersionOverrideError struct {
		Path    string
		Package string
		Version string
	}
)

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrManifestParse.
func (e *ParseError) Is(target error) bool { return target == ErrManifestParse }

func (e *MissingVersionError) Error() string {
	if e.Dependency == "" {
		return fmt.Sprintf("%s: workspace has no [workspace.package] version", e.Path)
	}
	return fmt.Sprintf("%s: dependency %q of package %q has no version requirement", e.Path, e.Dependency, e.Package)
}

// Is lets errors.Is match ErrMissingVersion.
func (e *MissingVersionError) Is(target error) bool { return target == ErrMissingVersion }

func (e *VersionOverrideError) Error() string {
	return fmt.Sprintf("%s: package %q declares version %q; publishable members must use version.workspace = true",
		e.Path, e.Package, e.Version)
}

// Is lets errors.Is match ErrVersionOverride.
func (e *VersionOverrideError) Is(target error) bool { return target == ErrVersionOverride }
