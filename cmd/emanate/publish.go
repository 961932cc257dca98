// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emanate/emanate/internal/depgraph"
	"github.com/emanate/emanate/internal/publish"
)

type publishOptions struct {
	dryRun   bool
	allowNew bool
}

func newPublishCommand(app *App, opts *rootOptions) *cobra.Command {
	var pubOpts publishOptions

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish every eligible package in dependency order",
		Long: `Publish every eligible package in dependency order.

Packages whose workspace version is already the latest registry version
are skipped, so an interrupted run can simply be repeated. The first
failed upload stops the run.

With --dry-run nothing is uploaded; instead every internal requirement
is checked against the versions on the registry and the versions this
run would publish, and all problems are reported together.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := app.begin(cmd, opts)
			if err != nil {
				return err
			}
			return runPublish(cmd, inv, pubOpts)
		},
	}

	cmd.Flags().BoolVar(&pubOpts.dryRun, "dry-run", false, "simulate the run and validate dependency requirements")
	cmd.Flags().BoolVar(&pubOpts.allowNew, "allow-new", false, "treat packages missing from the registry as never published")

	return cmd
}

func runPublish(cmd *cobra.Command, inv *invocation, pubOpts publishOptions) error {
	ctx := cmd.Context()
	ws, err := inv.loadWorkspace(ctx)
	if err != nil {
		return err
	}

	graph := depgraph.Build(ws)
	order, err := publishOrder(ws, graph)
	if err != nil {
		return err
	}

	orch := publish.New(ws, graph,
		inv.app.Registry(inv.cfg, inv.logger),
		inv.app.Toolchain(inv.cfg, inv.logger, inv.app.stdout, inv.app.stderr),
		publish.Options{
			AllowNew: pubOpts.allowNew,
			Delay:    inv.cfg.Publish.Delay,
			Logger:   inv.logger,
		})

	plan, err := orch.Plan(ctx, order, pubOpts.dryRun)
	if err != nil {
		return failure("plan publish", ws.ManifestPath, err,
			"Use --allow-new if a package has never been published")
	}
	if pubOpts.dryRun {
		if err := orch.Validate(plan); err != nil {
			return failure("validate publish plan", ws.ManifestPath, err)
		}
	}

	report, err := orch.Execute(ctx, plan)
	renderReport(inv, plan, report)
	if err != nil {
		return failure("publish packages", ws.ManifestPath, err)
	}
	return nil
}

func renderReport(inv *invocation, plan *publish.Plan, report *publish.Report) {
	if report == nil {
		return
	}
	out := inv.stdout()

	done := make(map[string]bool)
	for _, names := range [][]string{report.Published, report.Simulated, report.Skipped} {
		for _, n := range names {
			done[n] = true
		}
	}

	for _, step := range plan.Steps() {
		if !done[step.Package] {
			continue
		}
		var action string
		switch step.Action {
		case publish.ActionSkip:
			action = SubtitleStyle.Render("skipped")
		case publish.ActionSimulate:
			action = WarningStyle.Render("would publish")
		case publish.ActionPublish:
			action = SuccessStyle.Render("published")
		}
		fmt.Fprintf(out, "%s %s %s\n", PackageStyle.Render(step.Package), step.Target, action)
	}
}
