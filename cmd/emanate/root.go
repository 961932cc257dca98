// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/emanate/emanate/internal/config"
	"github.com/emanate/emanate/internal/issue"
	"github.com/emanate/emanate/internal/workspace"
	"github.com/emanate/emanate/pkg/manifest"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// rootOptions holds the global flag values of one command tree.
	rootOptions struct {
		manifest   string
		configPath string
		verbose    bool
	}

	// invocation is the per-run state shared by command handlers.
	invocation struct {
		app     *App
		cfg     *config.Config
		logger  *log.Logger
		verbose bool
		opts    *rootOptions
	}
)

// newRootCommand builds the full command tree bound to app.
func newRootCommand(app *App) (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "emanate",
		Short: "Publish Cargo workspaces in dependency order",
		Long: TitleStyle.Render("emanate") + SubtitleStyle.Render(" - publish Cargo workspaces in dependency order") + `

emanate keeps every member of a Cargo workspace on one shared version,
rewrites internal dependency requirements when that version moves and
publishes the members to crates.io so that each package is uploaded
after everything it depends on.

` + SubtitleStyle.Render("Examples:") + `
  emanate order                 Show the publish order
  emanate version minor         Bump 0.3.1 to 0.4.0 across the workspace
  emanate publish --dry-run     Simulate publishing and validate requirements
  emanate check                 Compare external dependencies with crates.io`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.manifest, "manifest", "m", "", "workspace directory or Cargo.toml (default is the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $HOME/.config/emanate/config.cue)")

	rootCmd.AddCommand(
		newVersionCommand(app, opts),
		newOrderCommand(app, opts),
		newCheckCommand(app, opts),
		newPublishCommand(app, opts),
		newBuildCommand(app, opts),
		newOwnerCommand(app, opts),
		newConfigCommand(app, opts),
	)

	return rootCmd, opts
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the resulting status.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd, opts := newRootCommand(app)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler(opts)),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// errorHandler renders ActionableErrors with their suggestions and, in
// verbose mode, the error chain and the linked catalog entry. Other errors
// (usage errors mostly) keep fang's default rendering.
func errorHandler(opts *rootOptions) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return
		}
		var ae *issue.ActionableError
		if !errors.As(err, &ae) {
			fang.DefaultErrorHandler(w, styles, err)
			return
		}
		renderError(w, ae, opts.verbose)
	}
}

func renderError(w io.Writer, ae *issue.ActionableError, verbose bool) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+ae.Format(verbose))
	if !verbose || ae.Issue == 0 {
		return
	}
	if entry := issue.Get(ae.Issue); entry != nil {
		if rendered, err := entry.Render("dark"); err == nil {
			fmt.Fprint(w, rendered)
		}
	}
}

// begin loads the configuration and sets up logging for one command run.
func (a *App) begin(cmd *cobra.Command, opts *rootOptions) (*invocation, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configPath})
	if err != nil {
		var ae *issue.ActionableError
		if errors.As(err, &ae) {
			ae.Issue = issue.ConfigLoadFailedId
			return nil, ae
		}
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	verbose := opts.verbose || cfg.UI.Verbose
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: "emanate",
		Level:  level,
	})

	opts.verbose = verbose
	return &invocation{app: a, cfg: cfg, logger: logger, verbose: verbose, opts: opts}, nil
}

// loadWorkspace locates and loads the workspace named by --manifest.
func (inv *invocation) loadWorkspace(ctx context.Context) (*manifest.Workspace, error) {
	path, err := workspace.Locate(inv.opts.manifest)
	if err != nil {
		return nil, failure("locate workspace", inv.opts.manifest, err,
			"Run emanate from the workspace root or pass --manifest")
	}

	ws, err := workspace.Load(ctx, path, inv.logger)
	if err != nil {
		return nil, failure("load workspace", path, err)
	}
	inv.logger.Debug("workspace loaded", "manifest", path, "version", ws.Version, "packages", len(ws.Packages))
	return ws, nil
}

func (inv *invocation) stdout() io.Writer { return inv.app.stdout }
