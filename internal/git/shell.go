package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ShellRunner shells out to the system git binary. Stdout and stderr are
// merged so diagnostic output survives into CommandError regardless of which
// stream git wrote it to.
type ShellRunner struct {
	// Git is the git binary to execute. Defaults to "git" when empty.
	Git string

	// NetworkRetries controls how many additional attempts should be made for
	// network oriented git commands (clone, fetch, push). When zero, a default
	// of 2 retries is used. Local mutating commands are never retried.
	NetworkRetries int

	// NetworkRetryDelay controls the initial backoff delay between retries.
	// When zero, a default of 1 second is used. Backoff grows exponentially
	// per attempt.
	NetworkRetryDelay time.Duration

	// NetworkTimeout bounds network commands that would otherwise inherit an
	// unbounded context. When zero, a default of 2 minutes is used.
	NetworkTimeout time.Duration
}

// NewShellRunner returns a Runner backed by system git commands.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

func (r *ShellRunner) gitBinary() string {
	if r.Git == "" {
		return "git"
	}
	return r.Git
}

func (r *ShellRunner) Run(ctx context.Context, dir string, args ...string) error {
	_, err := r.run(ctx, dir, args)
	return err
}

func (r *ShellRunner) Output(ctx context.Context, dir string, args ...string) (string, error) {
	return r.run(ctx, dir, args)
}

func (r *ShellRunner) run(ctx context.Context, dir string, args []string) (string, error) {
	full := args
	if dir != "" {
		full = append([]string{"-C", dir}, args...)
	}

	isNetwork := isNetworkCommand(primaryGitCommand(full))

	retries := 0
	if isNetwork {
		retries = r.networkRetriesValue()
	}

	delay := r.networkRetryDelayValue()
	var lastOut string
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		attemptCtx, cancel := r.applyNetworkTimeout(ctx, isNetwork)
		out, err := r.runOnce(attemptCtx, full)
		cancel()

		if err == nil {
			return out, nil
		}
		lastOut, lastErr = out, err

		if !isNetwork {
			break
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		if attempt == retries {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		if delay < time.Second {
			delay = time.Second
		}
		delay *= 2
	}

	return lastOut, lastErr
}

func (r *ShellRunner) runOnce(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, r.gitBinary(), args...)
	setProcessGroup(cmd)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return "", &CommandError{Args: args, Output: output.String(), Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		terminateProcessGroup(cmd)
		<-done
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return output.String(), &CommandError{Args: args, Output: output.String(), Err: err}
		}
	}

	return output.String(), nil
}

func primaryGitCommand(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			if i+1 < len(args) {
				return args[i+1]
			}
			return ""
		}
		if strings.HasPrefix(arg, "-") {
			switch arg {
			case "-C", "--git-dir", "-c":
				i++
			}
			continue
		}
		return arg
	}
	return ""
}

func isNetworkCommand(cmd string) bool {
	switch cmd {
	case "clone", "fetch", "push", "pull", "remote", "ls-remote":
		return true
	default:
		return false
	}
}

func (r *ShellRunner) networkRetriesValue() int {
	if r.NetworkRetries < 0 {
		return 0
	}
	if r.NetworkRetries == 0 {
		return 2
	}
	return r.NetworkRetries
}

func (r *ShellRunner) networkRetryDelayValue() time.Duration {
	if r.NetworkRetryDelay <= 0 {
		return time.Second
	}
	return r.NetworkRetryDelay
}

func (r *ShellRunner) networkTimeoutValue() time.Duration {
	if r.NetworkTimeout <= 0 {
		return 2 * time.Minute
	}
	return r.NetworkTimeout
}

func (r *ShellRunner) applyNetworkTimeout(ctx context.Context, network bool) (context.Context, context.CancelFunc) {
	if !network {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok && !deadline.IsZero() {
		return ctx, func() {}
	}
	timeout := r.networkTimeoutValue()
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// CommandError wraps failures when invoking the git binary.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("git %s: %v\n%s", strings.Join(e.Args, " "), e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExitCode reports the exit status of the failed git process, or -1 when the
// process never ran or was terminated by a signal.
func (e *CommandError) ExitCode() int {
	if e == nil || e.Err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
