package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mergebot",
		Short:         "Merge reviewed branches into the integration branch and clean up after them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "mergebot.yaml", "config file path")
	root.AddCommand(newMergeCmd())
	root.AddCommand(newProvisionCmd())
	root.AddCommand(newValidateCmd())
	return root
}
