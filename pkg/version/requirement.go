// SPDX-License-Identifier: MPL-2.0

package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// operators lists the requirement prefixes recognized in manifests, longest first.
var operators = []string{">=", "<=", "=", "^", "~", ">", "<"}

// Requirement is a cargo-style version requirement such as "1.2", "^1.2.3",
// "=1.2.3", "~1.2" or ">=1.0, <2.0". A bare version means caret semantics.
type Requirement struct {
	raw        string
	constraint *semver.Constraints
}

// ParseRequirement parses a version requirement string.
func ParseRequirement(s string) (Requirement, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Requirement{}, fmt.Errorf("%w: empty requirement", ErrInvalidVersion)
	}

	parts := strings.Split(raw, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && p[0] >= '0' && p[0] <= '9' {
			p = "^" + p
		}
		parts[i] = p
	}

	c, err := semver.NewConstraint(strings.Join(parts, ", "))
	if err != nil {
		return Requirement{}, fmt.Errorf("%w: requirement %q: %w", ErrInvalidVersion, raw, err)
	}
	return Requirement{raw: raw, constraint: c}, nil
}

// String returns the requirement as written in the manifest.
func (r Requirement) String() string {
	return r.raw
}

// Allows reports whether v satisfies the requirement. Pre-release versions
// only match requirements that themselves name a pre-release.
func (r Requirement) Allows(v Version) bool {
	if r.constraint == nil {
		return false
	}
	sv, err := semver.NewVersion(v.String())
	if err != nil {
		return false
	}
	return r.constraint.Check(sv)
}

// Base returns the version named by a single-term requirement, e.g. 1.2.3
// for "=1.2.3" or "1.2.3". It reports false for partial versions ("1.2"),
// wildcards and compound requirements.
func (r Requirement) Base() (Version, bool) {
	if strings.Contains(r.raw, ",") {
		return Version{}, false
	}
	_, rest := SplitOperator(r.raw)
	v, err := Parse(rest)
	if err != nil {
		return Version{}, false
	}
	return v, true
}

// SplitOperator splits a single requirement term into its comparison
// operator (possibly empty) and the version text that follows it.
func SplitOperator(s string) (op, rest string) {
	s = strings.TrimSpace(s)
	for _, candidate := range operators {
		if strings.HasPrefix(s, candidate) {
			return candidate, strings.TrimSpace(s[len(candidate):])
		}
	}
	return "", s
}
