package git

import "context"

// Runner executes git commands against a local working copy. Implementations
// may shell out to the system git binary or fake the calls for tests.
type Runner interface {
	// Run executes git with the given arguments in dir, blocking until the
	// process exits. A nonzero exit surfaces as a *CommandError.
	Run(ctx context.Context, dir string, args ...string) error

	// Output behaves like Run but returns the combined stdout/stderr text.
	Output(ctx context.Context, dir string, args ...string) (string, error)
}
