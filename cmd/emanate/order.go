// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emanate/emanate/internal/depgraph"
	"github.com/emanate/emanate/pkg/manifest"
)

func newOrderCommand(app *App, opts *rootOptions) *cobra.Command {
	var levels bool

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the order in which packages are published",
		Long: `Print the order in which packages are published.

Every package appears after all the workspace packages it depends on.
Members with publish = false are left out. With --levels, packages that
do not depend on each other are grouped on one line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := app.begin(cmd, opts)
			if err != nil {
				return err
			}
			ws, err := inv.loadWorkspace(cmd.Context())
			if err != nil {
				return err
			}

			graph := depgraph.Build(ws)
			out := inv.stdout()
			if levels {
				lv, err := graph.Graph.Levels()
				if err != nil {
					return failure("resolve publish order", ws.ManifestPath, err)
				}
				for i, level := range lv {
					fmt.Fprintf(out, "%d. %s\n", i+1, strings.Join(level, " "))
				}
				return nil
			}

			order, err := publishOrder(ws, graph)
			if err != nil {
				return err
			}
			for i, name := range order {
				fmt.Fprintf(out, "%d. %s %s\n", i+1, PackageStyle.Render(name), SubtitleStyle.Render(ws.Version.String()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&levels, "levels", false, "group independent packages on one line")

	return cmd
}

// publishOrder resolves the publish order of graph.
func publishOrder(ws *manifest.Workspace, graph *depgraph.Result) ([]string, error) {
	order, err := graph.Graph.Order()
	if err != nil {
		return nil, failure("resolve publish order", ws.ManifestPath, err)
	}
	return order, nil
}
