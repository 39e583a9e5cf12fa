package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/netquity/mergebot/internal/git"
)

// Validator gates merge requests: forbidden branch names are rejected before
// any network access, then the branch must resolve to a commit on origin.
type Validator struct {
	forbidden []string
	git       git.Runner
}

// NewValidator returns a Validator rejecting the given branch names. Matching
// is case-sensitive and exact.
func NewValidator(forbidden []string, gitRunner git.Runner) *Validator {
	return &Validator{forbidden: forbidden, git: gitRunner}
}

// Validate returns a *ValidationError when branch may not be merged from
// repoDir. A nil return means the branch exists on origin and is allowed.
func (v *Validator) Validate(ctx context.Context, repoDir, branch string) error {
	for _, name := range v.forbidden {
		if branch == name {
			return &ValidationError{
				Branch: branch,
				Reason: fmt.Sprintf("%s are forbidden choices for --branch-name", strings.Join(v.forbidden, ", ")),
			}
		}
	}

	if err := v.git.Run(ctx, repoDir, "fetch", "--prune", "origin"); err != nil {
		return fmt.Errorf("fetch before validation: %w", err)
	}

	if _, err := v.git.Output(ctx, repoDir, "rev-parse", "--verify", "--quiet", "origin/"+branch+"^{commit}"); err != nil {
		return &ValidationError{Branch: branch, Reason: "not a valid branch name"}
	}

	return nil
}
