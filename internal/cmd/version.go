package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitswitch/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		GroupID: GroupSetup,
		Short:   "Print the gitswitch version",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "gitswitch %s\n", buildinfo.Summary())
			return err
		},
	}
}
