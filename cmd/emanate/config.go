// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emanate/emanate/internal/config"
)

// newConfigCommand creates the `emanate config` command tree.
func newConfigCommand(app *App, opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect emanate configuration",
		Long: `Inspect emanate configuration.

Configuration is read from:
  - Linux: ~/.config/emanate/config.cue
  - macOS: ~/Library/Application Support/emanate/config.cue
  - Windows: %APPDATA%\emanate\config.cue
and can be overridden with EMANATE_* environment variables,
e.g. EMANATE_REGISTRY_URL or EMANATE_PUBLISH_DELAY.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := app.begin(cmd, opts)
			if err != nil {
				return err
			}
			fmt.Fprint(inv.stdout(), config.GenerateCUE(inv.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	return cfgCmd
}
