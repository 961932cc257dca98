// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emanate/emanate/internal/depgraph"
	"github.com/emanate/emanate/pkg/manifest"
)

func newOwnerCommand(app *App, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage crates.io owners of every publishable package",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newOwnerActionCommand(app, opts, "add", "Grant a user or team publish rights", Toolchain.AddOwner),
		newOwnerActionCommand(app, opts, "remove", "Revoke publish rights of a user or team", Toolchain.RemoveOwner),
	)

	return cmd
}

func newOwnerActionCommand(app *App, opts *rootOptions, use, short string,
	action func(Toolchain, context.Context, *manifest.Package, string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user>",
		Short: short,
		Long: short + ` on every publishable package.

A failure for one package is reported as a warning and the remaining
packages are still processed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			tc := app.Toolchain(inv.cfg, inv.logger, app.stdout, app.stderr)
			failed := 0
			for _, name := range order {
				if err := action(tc, ctx, ws.Package(name), args[0]); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					inv.logger.Warn("owner update failed", "package", name, "user", args[0], "err", err)
					failed++
				}
			}
			if failed > 0 {
				fmt.Fprintln(inv.stdout(), WarningStyle.Render(fmt.Sprintf("%d of %d packages failed", failed, len(order))))
			}
			return nil
		},
	}
}
