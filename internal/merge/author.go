package merge

import (
	"context"
	"strings"

	"github.com/netquity/mergebot/internal/git"
)

const authorFormat = "%an <%ae>"

// ResolveAuthor extracts the author identity of a branch's tip commit on
// origin. It runs before any mutating merge step so a bad ref aborts cleanly
// with nothing changed beyond the fetch.
func ResolveAuthor(ctx context.Context, gitRunner git.Runner, repoDir, branch string) (Author, error) {
	if err := gitRunner.Run(ctx, repoDir, "fetch", "--prune", "origin"); err != nil {
		return Author{}, &ResolutionError{Branch: branch, Err: err}
	}

	out, err := gitRunner.Output(ctx, repoDir, "log", "-1", "--format="+authorFormat, "origin/"+branch)
	if err != nil {
		return Author{}, &ResolutionError{Branch: branch, Err: err}
	}

	line := strings.TrimSuffix(out, "\n")
	if line == "" || strings.Contains(line, "\n") {
		return Author{}, &ResolutionError{Branch: branch, Output: out}
	}

	author, err := ParseAuthor(line)
	if err != nil {
		return Author{}, &ResolutionError{Branch: branch, Output: out, Err: err}
	}

	return author, nil
}
