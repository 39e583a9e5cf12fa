package merge

import "fmt"

// ValidationError rejects a branch before any mutating git operation has run.
type ValidationError struct {
	Branch string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("branch %q: %s", e.Branch, e.Reason)
}

// ResolutionError indicates the author lookup for a branch produced something
// other than exactly one "Name <email>" line.
type ResolutionError struct {
	Branch string
	Output string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("resolve author for %q: %v", e.Branch, e.Err)
	}
	return fmt.Sprintf("resolve author for %q: unexpected output %q", e.Branch, e.Output)
}

func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StepError identifies which step of the merge sequence failed. Steps already
// completed are not undone; the repository is left in whatever state the
// failed step produced.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("merge step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
