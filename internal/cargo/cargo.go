// SPDX-License-Identifier: MPL-2.0

// Package cargo runs the cargo toolchain for workspace packages. Every
// invocation uses an explicit argument vector; nothing goes through a shell.
package cargo

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/emanate/emanate/pkg/manifest"
)

// DefaultBinary is the toolchain executable looked up on PATH.
const DefaultBinary = "cargo"

type (
	// Toolchain invokes cargo subcommands in a package directory.
	Toolchain struct {
		// Binary is the cargo executable name or path.
		Binary string
		Stdout io.Writer
		Stderr io.Writer
		Logger *log.Logger
		// command builds the process; replaced in tests.
		command func(ctx context.Context, name string, args ...string) *exec.Cmd
	}

	// CommandError reports a cargo invocation that failed.
	CommandError struct {
		Args []string
		Err  error
	}
)

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// New creates a Toolchain writing the child output to the process streams.
func New(binary string, logger *log.Logger) *Toolchain {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Toolchain{
		Binary:  binary,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  logger,
		command: exec.CommandContext,
	}
}

// Publish uploads pkg to the registry.
func (t *Toolchain) Publish(ctx context.Context, pkg *manifest.Package) error {
	return t.run(ctx, pkg.Dir, "publish", "--package", pkg.Name)
}

// Build compiles pkg in release mode.
func (t *Toolchain) Build(ctx context.Context, pkg *manifest.Package) error {
	return t.run(ctx, pkg.Dir, "build", "--package", pkg.Name, "--release")
}

// AddOwner grants user publish rights on pkg.
func (t *Toolchain) AddOwner(ctx context.Context, pkg *manifest.Package, user string) error {
	return t.run(ctx, pkg.Dir, "owner", "--add", user, pkg.Name)
}

// RemoveOwner revokes publish rights of user on pkg.
func (t *Toolchain) RemoveOwner(ctx context.Context, pkg *manifest.Package, user string) error {
	return t.run(ctx, pkg.Dir, "owner", "--remove", user, pkg.Name)
}

func (t *Toolchain) run(ctx context.Context, dir string, args ...string) error {
	command := t.command
	if command == nil {
		command = exec.CommandContext
	}

	argv := append([]string{t.Binary}, args...)
	t.Logger.Debug("running", "cmd", strings.Join(argv, " "), "dir", dir)

	cmd := command(ctx, t.Binary, args...)
	cmd.Dir = dir
	cmd.Stdout = t.Stdout
	cmd.Stderr = t.Stderr
	if err := cmd.Run(); err != nil {
		return &CommandError{Args: argv, Err: err}
	}
	return nil
}
