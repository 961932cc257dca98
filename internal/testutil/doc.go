// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that build throwaway Cargo
// workspaces on disk. Every helper fails the test instead of returning an error.
package testutil
