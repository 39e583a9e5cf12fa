package gh

import "context"

// NewNoopClient returns a Client that approves every query without touching
// the network. Used when no token is configured and in tests.
func NewNoopClient() Client {
	return &noopClient{}
}

type noopClient struct{}

func (c *noopClient) BranchExists(ctx context.Context, org, repo, branch string) (bool, error) {
	return true, nil
}

func (c *noopClient) IsOrgMember(ctx context.Context, org, username string) (bool, error) {
	return true, nil
}
