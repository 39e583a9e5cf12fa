package git

import "context"

// NewNoopRunner returns a Runner that performs no actual git operations. All
// commands succeed with empty output, useful for dry-run scenarios.
func NewNoopRunner() Runner {
	return &noopRunner{}
}

type noopRunner struct{}

func (r *noopRunner) Run(ctx context.Context, dir string, args ...string) error {
	return nil
}

func (r *noopRunner) Output(ctx context.Context, dir string, args ...string) (string, error) {
	return "", nil
}
