// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the emanate command tree.
//
// Handlers stay thin: they load the workspace, call into the internal
// packages and render results. Collaborators that talk to the outside
// world (configuration, registry, cargo) are injected through App so the
// commands can be tested in-process.
package cmd
