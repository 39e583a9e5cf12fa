package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/netquity/mergebot/internal/git"
	gh "github.com/netquity/mergebot/internal/github"
	"github.com/netquity/mergebot/internal/merge"
	"github.com/netquity/mergebot/internal/repo"
)

// Runner glues together provisioning, validation, and the merge orchestrator.
type Runner struct {
	cfg       Config
	log       *slog.Logger
	ghFactory gh.Factory
	gitRunner git.Runner
	prov      *repo.Provisioner
	orch      *merge.Orchestrator
}

// NewRunner constructs a Runner with the supplied configuration. Startup is
// two-phase: construct here, then Provision before the first Merge.
func NewRunner(cfg Config, dryRun bool) (*Runner, error) {
	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return newRunner(cfg, dryRun, logger, gh.NewRESTFactory(cfg.GitHubBaseURL, cfg.GitHubUploadURL), git.NewShellRunner()), nil
}

// NewRunnerWithDeps constructs a Runner with injected dependencies for testing.
func NewRunnerWithDeps(cfg Config, dryRun bool, log *slog.Logger, ghFactory gh.Factory, gitRunner git.Runner) *Runner {
	return newRunner(cfg, dryRun, log, ghFactory, gitRunner)
}

func newRunner(cfg Config, dryRun bool, log *slog.Logger, ghFactory gh.Factory, gitRunner git.Runner) *Runner {
	validator := merge.NewValidator(cfg.ForbiddenBranches, gitRunner)
	orch := merge.New(merge.Config{
		ReposRoot:         cfg.ReposRoot,
		IntegrationBranch: cfg.IntegrationBranch,
		DryRun:            dryRun,
	}, gitRunner, validator, log)

	return &Runner{
		cfg:       cfg,
		log:       log,
		ghFactory: ghFactory,
		gitRunner: gitRunner,
		prov: &repo.Provisioner{
			Root:      cfg.ReposRoot,
			Git:       gitRunner,
			UserName:  cfg.GitUserName,
			UserEmail: cfg.GitUserEmail,
			Log:       log,
		},
		orch: orch,
	}
}

// Provision clones every configured project that has no local working copy
// yet. Any failure aborts activation.
func (r *Runner) Provision(ctx context.Context) error {
	projects := r.cfg.ProjectList()
	if r.log != nil {
		r.log.Info("provisioning repositories", "repos_root", r.cfg.ReposRoot, "projects", len(projects))
	}
	return r.prov.EnsureAll(ctx, projects)
}

// Merge runs one merge request end to end and returns its outcome. The
// project name is case-normalized before lookup.
func (r *Runner) Merge(ctx context.Context, projectName, branch, user string) (merge.Outcome, error) {
	project, ok := r.cfg.Project(projectName)
	if !ok {
		return merge.Outcome{}, fmt.Errorf("unknown project %q", strings.ToLower(strings.TrimSpace(projectName)))
	}

	client, err := r.githubClient(ctx, project)
	if err != nil {
		return merge.Outcome{}, err
	}

	if r.cfg.RequireOrgMembership {
		allowed, err := r.checkOrgMembership(ctx, client, project, user)
		if err != nil {
			return merge.Outcome{}, err
		}
		if !allowed {
			if r.log != nil {
				r.log.Info("rejected merge request: user is not an organization member", "project", project.Name, "org", project.Org, "user", user)
			}
			return merge.Outcome{
				Status:         merge.StatusRejected,
				ReceiverBranch: r.cfg.IntegrationBranch,
				GiverBranch:    branch,
				Detail:         fmt.Sprintf("%s is not a member of the %s organization.", user, project.Org),
			}, nil
		}
	}

	if rejected := r.apiBranchPrecheck(ctx, client, project, branch); rejected {
		return merge.Outcome{
			Status:         merge.StatusRejected,
			ReceiverBranch: r.cfg.IntegrationBranch,
			GiverBranch:    branch,
			Detail:         fmt.Sprintf("%s is not a valid branch choice.", branch),
		}, nil
	}

	return r.orch.Merge(ctx, merge.Request{Project: project, Branch: branch, User: user})
}

// githubClient builds an API client when a token and organization are
// configured, and a permissive noop client otherwise so the API-backed gates
// become pass-throughs.
func (r *Runner) githubClient(ctx context.Context, project merge.Project) (gh.Client, error) {
	if r.cfg.GitHubToken == "" || project.Org == "" {
		if r.cfg.RequireOrgMembership {
			return nil, fmt.Errorf("project %q needs github_org and a token for require_org_membership", project.Name)
		}
		return gh.NewNoopClient(), nil
	}

	client, err := r.ghFactory.New(ctx, r.cfg.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("initialize github client: %w", err)
	}
	return client, nil
}

func (r *Runner) checkOrgMembership(ctx context.Context, client gh.Client, project merge.Project, user string) (bool, error) {
	if strings.TrimSpace(user) == "" {
		return false, fmt.Errorf("an invoking user is required when require_org_membership is enabled")
	}

	member, err := client.IsOrgMember(ctx, project.Org, user)
	if err != nil {
		return false, fmt.Errorf("check organization membership for %q in %q: %w", user, project.Org, err)
	}
	return member, nil
}

// apiBranchPrecheck fast-fails a request for a branch GitHub does not know
// about, saving a fetch. The git-side validation inside the orchestrator
// stays authoritative; an API error here only logs and falls through.
func (r *Runner) apiBranchPrecheck(ctx context.Context, client gh.Client, project merge.Project, branch string) bool {
	if client == nil {
		return false
	}

	repoName, err := gh.RepoFromURL(project.RepoURL)
	if err != nil {
		if r.log != nil {
			r.log.Warn("skipping API branch pre-check", "project", project.Name, "error", err)
		}
		return false
	}

	exists, err := client.BranchExists(ctx, project.Org, repoName, branch)
	if err != nil {
		if r.log != nil {
			r.log.Warn("API branch pre-check failed, continuing with git validation", "project", project.Name, "branch", branch, "error", err, "retryable", gh.IsRetryable(err))
		}
		return false
	}

	if !exists && r.log != nil {
		r.log.Info("rejected merge request: branch not found via API", "project", project.Name, "branch", branch)
	}
	return !exists
}
