// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emanate/emanate/pkg/manifest"
)

// TestHelperProcess is not a real test. It stands in for the cargo binary
// when re-executed by fakeCommand.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("EMANATE_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	wd, _ := os.Getwd()
	fmt.Fprintf(os.Stdout, "dir=%s\nargv=%s\n", filepath.Base(wd), strings.Join(args, " "))
	if os.Getenv("EMANATE_HELPER_FAIL") == "1" {
		fmt.Fprintln(os.Stderr, "error: crate already exists")
		os.Exit(101)
	}
	os.Exit(0)
}

func fakeCommand(fail bool) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "EMANATE_HELPER_PROCESS=1")
		if fail {
			cmd.Env = append(cmd.Env, "EMANATE_HELPER_FAIL=1")
		}
		return cmd
	}
}

func newTestToolchain(t *testing.T, fail bool) (*Toolchain, *bytes.Buffer, *bytes.Buffer, *manifest.Package) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "widget")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	tc := New("cargo", nil)
	tc.Stdout = &stdout
	tc.Stderr = &stderr
	tc.command = fakeCommand(fail)
	return tc, &stdout, &stderr, &manifest.Package{Name: "widget", Dir: dir}
}

func TestToolchain_Argv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  func(context.Context, *Toolchain, *manifest.Package) error
		want string
	}{
		{"publish", func(ctx context.Context, tc *Toolchain, p *manifest.Package) error { return tc.Publish(ctx, p) },
			"cargo publish --package widget"},
		{"build", func(ctx context.Context, tc *Toolchain, p *manifest.Package) error { return tc.Build(ctx, p) },
			"cargo build --package widget --release"},
		{"owner add", func(ctx context.Context, tc *Toolchain, p *manifest.Package) error { return tc.AddOwner(ctx, p, "github:org:team") },
			"cargo owner --add github:org:team widget"},
		{"owner remove", func(ctx context.Context, tc *Toolchain, p *manifest.Package) error { return tc.RemoveOwner(ctx, p, "alice") },
			"cargo owner --remove alice widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tc, stdout, _, pkg := newTestToolchain(t, false)
			if err := tt.run(context.Background(), tc, pkg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out := stdout.String()
			if !strings.Contains(out, "argv="+tt.want+"\n") {
				t.Errorf("output = %q, want argv %q", out, tt.want)
			}
			if !strings.Contains(out, "dir=widget\n") {
				t.Errorf("command did not run in the package directory: %q", out)
			}
		})
	}
}

func TestToolchain_Failure(t *testing.T) {
	t.Parallel()
	tc, _, stderr, pkg := newTestToolchain(t, true)

	err := tc.Publish(context.Background(), pkg)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want *CommandError", err)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 101 {
		t.Errorf("expected exit status 101, got %v", err)
	}
	if !strings.Contains(err.Error(), "cargo publish --package widget") {
		t.Errorf("error message = %q", err.Error())
	}
	if !strings.Contains(stderr.String(), "crate already exists") {
		t.Errorf("stderr not forwarded: %q", stderr.String())
	}
}
