// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistry is matched by every error returned by the client.
	ErrRegistry = errors.New("registry error")
	// ErrNotFound is returned when the registry does not know the package.
	ErrNotFound = errors.New("package not found on registry")
	// ErrNoVersions is returned when the package exists but has no usable
	// (non-yanked, parseable) version.
	ErrNoVersions = errors.New("no published versions")
)

type (
	// Error wraps any failure of a lookup for one package.
	Error struct {
		Package string
		Err     error
	}

	// HTTPError reports an unexpected HTTP status.
	HTTPError struct {
		URL        string
		StatusCode int
	}
)

func (e *Error) Error() string {
	return fmt.Sprintf("registry lookup for %q: %v", e.Package, e.Err)
}

// Unwrap exposes both ErrRegistry and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{ErrRegistry, e.Err}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}
