// SPDX-License-Identifier: MPL-2.0

package version

import (
	"fmt"
	"strings"
)

// ChangeKind identifies how a Change derives the next version.
type ChangeKind int

const (
	// ChangeMajor increments the major component.
	ChangeMajor ChangeKind = iota + 1
	// ChangeMinor increments the minor component.
	ChangeMinor
	// ChangePatch increments the patch component.
	ChangePatch
	// ChangeExact replaces the version with a literal one.
	ChangeExact
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeMajor:
		return "major"
	case ChangeMinor:
		return "minor"
	case ChangePatch:
		return "patch"
	case ChangeExact:
		return "exact"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is a version change directive: a semantic increment or a literal
// replacement version.
type Change struct {
	Kind ChangeKind
	// Target is only meaningful for ChangeExact.
	Target Version
}

// ParseChange parses "major", "minor", "patch" or a literal version.
func ParseChange(s string) (Change, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return Change{Kind: ChangeMajor}, nil
	case "minor":
		return Change{Kind: ChangeMinor}, nil
	case "patch":
		return Change{Kind: ChangePatch}, nil
	}

	v, err := Parse(s)
	if err != nil {
		return Change{}, fmt.Errorf("version change must be major, minor, patch or MAJOR.MINOR.PATCH[-PRE]: %w", err)
	}
	return Change{Kind: ChangeExact, Target: v}, nil
}

// Apply derives the next version from current. Increments clear both the
// pre-release suffix and the build metadata.
func (c Change) Apply(current Version) Version {
	switch c.Kind {
	case ChangeMajor:
		return Version{Major: current.Major + 1}
	case ChangeMinor:
		return Version{Major: current.Major, Minor: current.Minor + 1}
	case ChangePatch:
		return Version{Major: current.Major, Minor: current.Minor, Patch: current.Patch + 1}
	case ChangeExact:
		return c.Target
	default:
		return current
	}
}

func (c Change) String() string {
	if c.Kind == ChangeExact {
		return c.Target.String()
	}
	return c.Kind.String()
}
