// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/emanate/emanate/internal/depgraph"
	"github.com/emanate/emanate/internal/issue"
)

func newBuildCommand(app *App, opts *rootOptions) *cobra.Command {
	var packages []string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build packages in release mode in publish order",
		Args:  cobra.NoArgs,
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

			order, err := publishOrder(ws, depgraph.Build(ws))
			if err != nil {
				return err
			}
			for _, name := range packages {
				if !slices.Contains(order, name) {
					return issue.NewErrorContext().
						WithOperation("select packages").
						WithResource(name).
						WithSuggestion("Run 'emanate order' to list the publishable packages").
						Wrap(fmt.Errorf("%q is not a publishable workspace package", name)).
						BuildError()
				}
			}
			if len(packages) > 0 {
				order = slices.DeleteFunc(order, func(n string) bool { return !slices.Contains(packages, n) })
			}

			tc := app.Toolchain(inv.cfg, inv.logger, app.stdout, app.stderr)
			for _, name := range order {
				inv.logger.Info("building", "package", name)
				if err := tc.Build(ctx, ws.Package(name)); err != nil {
					return failure("build package", name, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&packages, "package", "p", nil, "package to build (repeatable; default all publishable packages)")

	return cmd
}
