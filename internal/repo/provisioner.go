package repo

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/netquity/mergebot/internal/git"
	"github.com/netquity/mergebot/internal/merge"
)

// Provisioner makes sure each configured project has a local clone under Root
// before any merge can be attempted. It never re-clones or updates an
// existing clone; staleness is corrected by the explicit fetches inside the
// merge sequence.
type Provisioner struct {
	// Root is the directory under which each project's clone lives, named by
	// project key.
	Root string

	// Git runs the clone and identity configuration commands.
	Git git.Runner

	// UserName and UserEmail become the automation commit identity of every
	// clone. The merge commit's committer carries this identity while its
	// author is reattributed to the branch author.
	UserName  string
	UserEmail string

	// Log may be nil.
	Log *slog.Logger
}

// ProvisionError reports a failed storage-root creation or project clone.
// Any provisioning failure is fatal to activation for all projects.
type ProvisionError struct {
	Project string
	Err     error
}

func (e *ProvisionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Project == "" {
		return fmt.Sprintf("provision repositories: %v", e.Err)
	}
	return fmt.Sprintf("provision %s: %v", e.Project, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EnsureAll provisions every project in order, stopping at the first failure.
func (p *Provisioner) EnsureAll(ctx context.Context, projects []merge.Project) error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return &ProvisionError{Err: err}
	}

	for _, project := range projects {
		if err := p.Ensure(ctx, project); err != nil {
			return err
		}
	}

	return nil
}

// Ensure clones the project when its local root is missing. Idempotent: an
// existing clone is left untouched.
func (p *Provisioner) Ensure(ctx context.Context, project merge.Project) error {
	root := project.Root(p.Root)

	if _, err := os.Stat(root); err == nil {
		if p.Log != nil {
			p.Log.Debug("clone already present", "project", project.Name, "path", root)
		}
		return nil
	} else if !os.IsNotExist(err) {
		return &ProvisionError{Project: project.Name, Err: err}
	}

	if err := p.Git.Run(ctx, p.Root, "clone", project.RepoURL, project.Name); err != nil {
		return &ProvisionError{Project: project.Name, Err: err}
	}

	if p.UserName != "" {
		if err := p.Git.Run(ctx, root, "config", "user.name", p.UserName); err != nil {
			return &ProvisionError{Project: project.Name, Err: fmt.Errorf("git config user.name: %w", err)}
		}
	}
	if p.UserEmail != "" {
		if err := p.Git.Run(ctx, root, "config", "user.email", p.UserEmail); err != nil {
			return &ProvisionError{Project: project.Name, Err: fmt.Errorf("git config user.email: %w", err)}
		}
	}

	if p.Log != nil {
		p.Log.Info("cloned project", "project", project.Name, "path", root)
	}

	return nil
}
