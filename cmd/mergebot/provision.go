package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netquity/mergebot/internal/app"
	"github.com/netquity/mergebot/internal/git"
	gh "github.com/netquity/mergebot/internal/github"
)

var flagProvisionDryRun bool

func newProvisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Clone every configured project that has no local working copy yet",
		RunE:  runProvision,
	}
	cmd.Flags().BoolVar(&flagProvisionDryRun, "dry-run", false, "report what would be cloned without running git")
	return cmd
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg, err := app.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	var runner *app.Runner
	if flagProvisionDryRun {
		logger, err := app.NewLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		runner = app.NewRunnerWithDeps(cfg, true, logger, gh.NewRESTFactory(cfg.GitHubBaseURL, cfg.GitHubUploadURL), git.NewNoopRunner())
	} else {
		runner, err = app.NewRunner(cfg, false)
		if err != nil {
			return err
		}
	}

	if err := runner.Provision(context.Background()); err != nil {
		return err
	}

	fmt.Println("All configured projects are provisioned.")
	return nil
}
