package gh

import (
	"fmt"
	"strings"
)

// RepoFromURL derives the bare repository name from a git remote URL. Both
// scp-like (git@github.com:org/repo.git) and URL-style
// (https://github.com/org/repo.git, ssh://git@github.com/org/repo.git)
// remotes are accepted.
func RepoFromURL(remote string) (string, error) {
	trimmed := strings.TrimSpace(remote)
	if trimmed == "" {
		return "", fmt.Errorf("remote url is empty")
	}

	// scp-like syntax has no scheme; everything after the colon is the path.
	if !strings.Contains(trimmed, "://") {
		if idx := strings.Index(trimmed, ":"); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
	}

	trimmed = strings.TrimRight(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")

	idx := strings.LastIndex(trimmed, "/")
	if idx >= 0 {
		trimmed = trimmed[idx+1:]
	}

	if trimmed == "" {
		return "", fmt.Errorf("could not derive repository name from %q", remote)
	}

	return trimmed, nil
}
