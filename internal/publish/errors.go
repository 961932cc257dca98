// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInconsistentDependency is matched by every InconsistentDependencyError.
	ErrInconsistentDependency = errors.New("inconsistent dependency")
	// ErrPublish is matched by every PublishError.
	ErrPublish = errors.New("publish failed")
)

type (
	// InconsistentDependencyError reports an internal dependency requirement
	// that no registry version, and no version published earlier in the same
	// run, satisfies.
	InconsistentDependencyError struct {
		Package     string
		Dependency  string
		Requirement string
		// Available lists the versions that were considered.
		Available []string
	}

	// PublishError reports the package whose publication halted the run.
	PublishError struct {
		Package string
		Err     error
	}
)

func (e *InconsistentDependencyError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("package %q requires %s %s, which no published or planned version satisfies (available: %s)",
		e.Package, e.Dependency, e.Requirement, available)
}

// Is lets errors.Is match ErrInconsistentDependency.
func (e *InconsistentDependencyError) Is(target error) bool { return target == ErrInconsistentDependency }

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing %q: %v", e.Package, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrPublish.
func (e *PublishError) Is(target error) bool { return target == ErrPublish }
