package main

import (
	"fmt"

	"github.com/obentoo/checkbump/internal/common/config"
	"github.com/obentoo/checkbump/internal/common/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(opts *options) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective application config",
		Long: `Print the application config after applying command line flags.

With --write the result is saved to the file given by --config, or to
~/.config/checkbump/config.yaml.

Examples:
  checkbump config
  checkbump config --repo ~/gentoo --arch amd64 --write`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			if !write {
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			path := opts.configPath
			if path == "" {
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
				err = cfg.Save()
			} else {
				err = cfg.SaveTo(path)
			}
			if err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			output.PrintSuccess(cmd.OutOrStdout(), "Config written to %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Save the effective config")

	return cmd
}
