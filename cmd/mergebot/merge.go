package main

import (
	"context"
	"fmt"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/netquity/mergebot/internal/app"
	"github.com/netquity/mergebot/internal/merge"
)

var (
	flagProjectName string
	flagBranchName  string
	flagUser        string
	flagDryRun      bool
)

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a reviewed branch into the integration branch and clean it up",
		RunE:  runMerge,
	}
	cmd.Flags().StringVar(&flagProjectName, "project-name", "", "configured project to merge into")
	cmd.Flags().StringVar(&flagBranchName, "branch-name", "", "branch on origin to merge")
	cmd.Flags().StringVar(&flagUser, "user", "", "who requested the merge (defaults to the current OS user)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "validate and resolve the author without touching git state")
	_ = cmd.MarkFlagRequired("project-name")
	_ = cmd.MarkFlagRequired("branch-name")
	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := app.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	invoker := flagUser
	if invoker == "" {
		current, err := user.Current()
		if err != nil {
			return fmt.Errorf("determine invoking user: %w", err)
		}
		invoker = current.Username
	}

	runner, err := app.NewRunner(cfg, flagDryRun)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if err := runner.Provision(ctx); err != nil {
		return err
	}

	outcome, err := runner.Merge(ctx, flagProjectName, flagBranchName, invoker)
	if err != nil {
		return err
	}

	fmt.Print(app.RenderOutcome(outcome))

	if outcome.Status == merge.StatusRejected {
		return fmt.Errorf("merge request rejected")
	}
	return nil
}
