package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/netquity/mergebot/internal/git"
)

// Config carries the slice of configuration the orchestrator needs.
type Config struct {
	// ReposRoot is the directory holding one clone per project.
	ReposRoot string

	// IntegrationBranch is the branch that receives merges. Defaults to
	// "develop" when empty.
	IntegrationBranch string

	// DryRun stops after validation and author resolution without mutating
	// any git state.
	DryRun bool
}

// Orchestrator runs the ordered merge sequence for one request at a time per
// project. Requests for distinct projects may proceed concurrently; requests
// for the same project serialize on a per-project mutex so one request's
// checkout cannot reset the integration branch under another's merge.
type Orchestrator struct {
	cfg       Config
	git       git.Runner
	validator *Validator
	log       *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a configured Orchestrator instance.
func New(cfg Config, gitRunner git.Runner, validator *Validator, logger *slog.Logger) *Orchestrator {
	if cfg.IntegrationBranch == "" {
		cfg.IntegrationBranch = "develop"
	}
	return &Orchestrator{
		cfg:       cfg,
		git:       gitRunner,
		validator: validator,
		log:       logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Merge takes req.Branch from "reviewed on origin" to "merged into the
// integration branch, pushed, and deleted". A *ValidationError is converted
// into a rejected Outcome with nil error; resolution and step failures are
// returned to the caller with the repository left as the failed step left it.
func (o *Orchestrator) Merge(ctx context.Context, req Request) (Outcome, error) {
	if o.git == nil {
		return Outcome{}, fmt.Errorf("git runner is required")
	}
	if o.validator == nil {
		return Outcome{}, fmt.Errorf("validator is required")
	}

	lock := o.projectLock(req.Project.Name)
	lock.Lock()
	defer lock.Unlock()

	repoDir := req.Project.Root(o.cfg.ReposRoot)
	receiver := o.cfg.IntegrationBranch

	if err := o.validator.Validate(ctx, repoDir, req.Branch); err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			if o.log != nil {
				o.log.Info("rejected merge request", "project", req.Project.Name, "branch", req.Branch, "reason", vErr.Reason)
			}
			return Outcome{
				Status:         StatusRejected,
				ReceiverBranch: receiver,
				GiverBranch:    req.Branch,
				Detail:         fmt.Sprintf("%s is not a valid branch choice.", req.Branch),
			}, nil
		}
		return Outcome{}, err
	}

	author, err := ResolveAuthor(ctx, o.git, repoDir, req.Branch)
	if err != nil {
		return Outcome{}, err
	}

	if o.log != nil {
		o.log.Info("resolved branch author", "project", req.Project.Name, "branch", req.Branch, "author", author.String())
	}

	if o.cfg.DryRun {
		return Outcome{
			Status:         StatusDryRun,
			ReceiverBranch: receiver,
			GiverBranch:    req.Branch,
			Detail:         fmt.Sprintf("dry run: %s would be merged to %s and reattributed to %s", req.Branch, receiver, author.String()),
		}, nil
	}

	message := fmt.Sprintf("Merge %s to %s\n\nBranch merged by %s.", req.Branch, receiver, req.User)

	steps := []struct {
		name string
		args []string
	}{
		{"fetch", []string{"fetch", "--prune", "origin"}},
		{"checkout", []string{"checkout", "-B", receiver, "origin/" + receiver}},
		{"merge", []string{"merge", "--no-ff", "-m", message, "origin/" + req.Branch}},
		{"amend", []string{"commit", "--amend", "--no-edit", "--author=" + author.String()}},
		{"push", []string{"push", "origin", receiver}},
		{"delete-remote-branch", []string{"push", "origin", "--delete", req.Branch}},
	}

	for _, step := range steps {
		if err := o.git.Run(ctx, repoDir, step.args...); err != nil {
			return Outcome{}, &StepError{Step: step.name, Err: err}
		}
		if o.log != nil {
			o.log.Debug("completed merge step", "project", req.Project.Name, "branch", req.Branch, "step", step.name)
		}
	}

	// A stale local ref for the merged branch may or may not exist; removing
	// it is housekeeping, not part of the merge contract.
	if err := o.git.Run(ctx, repoDir, "branch", "-D", req.Branch); err != nil && o.log != nil {
		o.log.Debug("no local branch ref to delete", "project", req.Project.Name, "branch", req.Branch, "error", err)
	}

	if o.log != nil {
		o.log.Info("merged branch", "project", req.Project.Name, "giver_branch", req.Branch, "receiver_branch", receiver, "merged_by", req.User, "author", author.String())
	}

	return Outcome{
		Status:         StatusMerged,
		ReceiverBranch: receiver,
		GiverBranch:    req.Branch,
		Detail:         fmt.Sprintf("I was able to complete the %s merge for you.", req.Project.Name),
	}, nil
}

func (o *Orchestrator) projectLock(name string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[name] = lock
	}
	return lock
}
