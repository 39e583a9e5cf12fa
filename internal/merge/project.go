package merge

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Project describes one configured repository the bot may merge into.
type Project struct {
	// Name is the configuration key for the project, unique and lowercase.
	Name string

	// RepoURL is the git remote the local clone tracks as origin.
	RepoURL string

	// Org is the GitHub organization owning the repository.
	Org string
}

// Root returns the project's local working copy directory under reposRoot.
func (p Project) Root(reposRoot string) string {
	return filepath.Join(reposRoot, p.Name)
}

// Request is the unit of work submitted to the orchestrator: merge the named
// branch into the project's integration branch on behalf of User.
type Request struct {
	Project Project
	Branch  string
	User    string
}

// Status classifies the terminal state of one merge request.
type Status string

const (
	StatusMerged   Status = "merged"
	StatusRejected Status = "rejected"
	StatusDryRun   Status = "dry_run"
)

// Outcome is the result surfaced back to the caller. ReceiverBranch is the
// integration branch, GiverBranch the merged branch.
type Outcome struct {
	Status         Status
	ReceiverBranch string
	GiverBranch    string
	Detail         string
}

// Author is the identity of a branch tip's author, resolved at merge time and
// reattributed onto the final merge commit.
type Author struct {
	Name  string
	Email string
}

// String renders the identity in git's canonical "Name <email>" form.
func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// ParseAuthor parses a single "Name <email>" line as produced by
// git log --format='%an <%ae>'.
func ParseAuthor(line string) (Author, error) {
	trimmed := strings.TrimSpace(line)
	open := strings.LastIndex(trimmed, "<")
	if open <= 0 || !strings.HasSuffix(trimmed, ">") {
		return Author{}, fmt.Errorf("malformed author line %q", line)
	}

	name := strings.TrimSpace(trimmed[:open])
	email := strings.TrimSpace(trimmed[open+1 : len(trimmed)-1])
	if name == "" || email == "" {
		return Author{}, fmt.Errorf("malformed author line %q", line)
	}

	return Author{Name: name, Email: email}, nil
}
