package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// LocalRunner implements the CommandRunner interface by executing
// binaries installed on the machine.
type LocalRunner struct{}

var _ CommandRunner = &LocalRunner{} // Compile-time check

// NewLocalRunner creates a new instance of the local command runner.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run executes a command and returns its stdout.
func (r *LocalRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return out, fmt.Errorf("%s failed in %q (exit %d): %s", name, dir, exitErr.ExitCode(), stderr)
	} else if err != nil {
		return nil, fmt.Errorf("%s failed: %w. Ensure it is installed and available on your PATH", name, err)
	}
	return out, nil
}

// LookPath implements the CommandRunner interface.
func (r *LocalRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Start launches a background process. The returned stop function kills it
// and reaps the process.
func (r *LocalRunner) Start(ctx context.Context, dir string, name string, args ...string) (func() error, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("cannot start %s: %w", name, err)
	}
	stop := func() error {
		if cmd.Process == nil {
			return nil
		}
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil
	}
	return stop, nil
}

// SplitCommand splits a configured command line such as "npm run build"
// into the executable and its arguments.
func SplitCommand(line string) (string, []string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	return fields[0], fields[1:], nil
}
