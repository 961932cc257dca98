// SPDX-License-Identifier: MPL-2.0

// Package version models the semantic versions carried by workspace manifests:
// a numeric major.minor.patch triple with an optional pre-release suffix.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersion is returned when a string is not a valid semantic version.
var ErrInvalidVersion = errors.New("invalid version")

// Version is a semantic version. The zero value is 0.0.0.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
	// Pre is the pre-release suffix without the leading '-', e.g. "rc.1".
	Pre string
	// Build is the build metadata without the leading '+'. It is preserved
	// when formatting but never participates in ordering.
	Build string
}

// Parse parses a version of the form MAJOR.MINOR.PATCH[-PRE][+BUILD].
// A leading "v" is not accepted since manifests never carry one.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == 'v' || !semver.IsValid("v"+s) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	var v Version
	rest := s
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		v.Build = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		v.Pre = rest[i+1:]
		rest = rest[:i]
	}

	parts := strings.Split(rest, ".")
	if len(parts) != 3 {
		// semver.IsValid accepts the "v1" and "v1.2" shorthands.
		return Version{}, fmt.Errorf("%w: %q: expected MAJOR.MINOR.PATCH", ErrInvalidVersion, s)
	}
	nums := [3]*uint64{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, s, err)
		}
		*nums[i] = n
	}

	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String formats the version back to its canonical textual form.
func (v Version) String() string {
	var sb strings.Builder
	sb.WriteString(v.core())
	if v.Pre != "" {
		sb.WriteByte('-')
		sb.WriteString(v.Pre)
	}
	if v.Build != "" {
		sb.WriteByte('+')
		sb.WriteString(v.Build)
	}
	return sb.String()
}

func (v Version) core() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// semverString returns the "v"-prefixed form understood by x/mod/semver.
func (v Version) semverString() string {
	s := "v" + v.core()
	if v.Pre != "" {
		s += "-" + v.Pre
	}
	return s
}

// IsPrerelease reports whether the version carries a pre-release suffix.
func (v Version) IsPrerelease() bool {
	return v.Pre != ""
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to
// or after other. A version without a suffix sorts above the same triple with
// a suffix; suffixes are ordered by semantic-version pre-release rules.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.semverString(), other.semverString())
}

// Equal reports whether both versions have the same precedence.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Max returns the highest version in vs and false when vs is empty.
func Max(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if best.Less(v) {
			best = v
		}
	}
	return best, true
}
