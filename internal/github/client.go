package gh

import (
	"context"
	"errors"
)

// Client exposes the GitHub operations required around a merge: confirming
// the invoking user belongs to the project's organization and fast pre-checks
// against remote branch state.
type Client interface {
	// BranchExists reports whether the named branch exists in org/repo.
	BranchExists(ctx context.Context, org, repo, branch string) (bool, error)

	// IsOrgMember reports whether username is a member of org.
	IsOrgMember(ctx context.Context, org, username string) (bool, error)
}

// Factory builds concrete GitHub clients (e.g., REST-backed).
type Factory interface {
	New(ctx context.Context, token string) (Client, error)
}

// retryableError marks an error that may succeed if the operation is retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// IsRetryable reports whether the supplied error resulted from a retryable
// GitHub API failure (for example, a transient network problem or
// rate-limited request).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var target *retryableError
	return errors.As(err, &target)
}
