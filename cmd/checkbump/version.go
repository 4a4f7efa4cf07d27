package main

import (
	"fmt"

	"github.com/obentoo/checkbump/internal/common/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")

	return cmd
}
