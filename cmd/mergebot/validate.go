package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netquity/mergebot/internal/app"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and report the configured projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cfgFile)
			if err != nil {
				return err
			}

			fmt.Printf("Config OK: %d project(s), repos root %s, integration branch %s\n",
				len(cfg.Projects), cfg.ReposRoot, cfg.IntegrationBranch)
			for _, project := range cfg.ProjectList() {
				fmt.Printf("  %s -> %s\n", project.Name, project.RepoURL)
			}
			return nil
		},
	}
}
