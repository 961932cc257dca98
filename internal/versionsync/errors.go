// SPDX-License-Identifier: MPL-2.0

package versionsync

import (
	"errors"
	"fmt"
)

// ErrRewriteIO is the sentinel matched by every RewriteIOError.
var ErrRewriteIO = errors.New("manifest rewrite failed")

// RewriteIOError reports a manifest that could not be read, rewritten or
// persisted. Op is one of "read", "parse", "stage" or "replace".
type RewriteIOError struct {
	Path string
	Op   string
	Err  error
}

func (e *RewriteIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RewriteIOError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrRewriteIO.
func (e *RewriteIOError) Is(target error) bool { return target == ErrRewriteIO }
