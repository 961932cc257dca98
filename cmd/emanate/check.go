// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emanate/emanate/internal/check"
	"github.com/emanate/emanate/internal/depgraph"
)

func newCheckCommand(app *App, opts *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare external dependencies with the latest registry versions",
		Long: `Compare external dependencies with the latest registry versions.

Each requirement is reported as ok (it names the latest stable version),
compatible (it admits the latest version) or update (it does not).
Registry lookups that fail are reported as warnings and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := app.begin(cmd, opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ws, err := inv.loadWorkspace(ctx)
			if err != nil {
				return err
			}

			graph := depgraph.Build(ws)
			client := app.Registry(inv.cfg, inv.logger)
			results, err := check.Run(ctx, ws, graph.External, client, inv.logger)
			if err != nil {
				return failure("check dependencies", ws.ManifestPath, err)
			}

			renderCheck(inv, results)
			if strict && check.Outdated(results) {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 1 when a dependency needs an update")

	return cmd
}

func renderCheck(inv *invocation, results []check.Result) {
	out := inv.stdout()
	if len(results) == 0 {
		fmt.Fprintln(out, SubtitleStyle.Render("No external dependencies to check"))
		return
	}

	nameWidth, reqWidth := 0, 0
	for _, r := range results {
		nameWidth = max(nameWidth, len(r.Name))
		reqWidth = max(reqWidth, len(r.Requirement))
	}

	for _, r := range results {
		status := string(r.Status)
		switch r.Status {
		case check.StatusOK:
			status = SuccessStyle.Render(status)
		case check.StatusCompatible:
			status = WarningStyle.Render(status)
		case check.StatusUpdate:
			status = ErrorStyle.Render(status)
		}
		fmt.Fprintf(out, "%-*s  %-*s  %s  %s\n", nameWidth, r.Name, reqWidth, r.Requirement, r.Latest, status)
	}
}
