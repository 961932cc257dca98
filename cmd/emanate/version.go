// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emanate/emanate/internal/issue"
	"github.com/emanate/emanate/internal/versionsync"
	"github.com/emanate/emanate/pkg/version"
)

func newVersionCommand(app *App, opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "version <major|minor|patch|X.Y.Z[-pre]>",
		Short: "Move the workspace to a new version",
		Long: `Move the workspace to a new version.

The shared version in [workspace.package] is bumped or replaced, and every
requirement that points at a workspace member is rewritten to the new
version. Comments and formatting of the manifests are preserved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := app.begin(cmd, opts)
			if err != nil {
				return err
			}
			return runVersion(cmd, inv, args[0], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the files that would change without writing them")

	return cmd
}

func runVersion(cmd *cobra.Command, inv *invocation, arg string, dryRun bool) error {
	change, err := version.ParseChange(arg)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("parse version change").
			WithResource(arg).
			WithSuggestion("Use major, minor, patch or a full version such as 1.2.0-rc.1").
			Wrap(err).
			BuildError()
	}

	ctx := cmd.Context()
	ws, err := inv.loadWorkspace(ctx)
	if err != nil {
		return err
	}

	res, err := versionsync.Plan(ws, change, inv.logger)
	if err != nil {
		return failure("update versions", ws.ManifestPath, err)
	}

	out := inv.stdout()
	changed := res.Changed()
	if !dryRun {
		if err := versionsync.Apply(res); err != nil {
			return failure("update versions", ws.ManifestPath, err)
		}
	}

	verb := "Updated"
	if dryRun {
		verb = "Would update"
	}
	fmt.Fprintf(out, "%s %s -> %s\n", TitleStyle.Render("Version"), res.Previous, SuccessStyle.Render(res.Next.String()))
	for _, f := range changed {
		rel, relErr := filepath.Rel(ws.Dir, f.Path)
		if relErr != nil {
			rel = f.Path
		}
		fmt.Fprintf(out, "  %s %s (%d)\n", verb, rel, len(f.Sites))
	}
	if len(changed) == 0 {
		fmt.Fprintln(out, SubtitleStyle.Render("  Nothing to change"))
	}
	return nil
}
