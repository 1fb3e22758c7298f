package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/nocturne-build/sofix/internal/domain/interfaces/gateways"
)

// CommandRunner is the default implementation of the Runner collaborator:
// a plain subprocess with a per-invocation timeout and combined output
// captured to the caller's sink. Deployments with a sandboxed root swap in
// their own Runner behind the same interface.
type CommandRunner struct {
	defaultTimeout time.Duration
}

// NewCommandRunner creates a new command runner
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		defaultTimeout: 2 * time.Minute,
	}
}

// Run executes cmd to completion. A nonzero exit, launch failure, or
// timeout is reported through the returned error; the RunResult is always
// populated with the exit code and duration.
func (r *CommandRunner) Run(ctx context.Context, cmd gateways.Command, output io.Writer) (*gateways.RunResult, error) {
	if len(cmd.Argv) == 0 {
		return &gateways.RunResult{ExitCode: -1}, fmt.Errorf("empty command")
	}

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = r.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startTime := time.Now()

	//nolint:gosec // G204: tool invocation is intentional, argv comes from audit configuration
	c := exec.CommandContext(execCtx, cmd.Argv[0], cmd.Argv[1:]...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}

	env := os.Environ()
	for key, value := range cmd.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	c.Env = env

	if output != nil {
		c.Stdout = output
		c.Stderr = output
	}

	err := c.Run()
	result := &gateways.RunResult{
		ExitCode: 0,
		Duration: time.Since(startTime),
	}

	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		// A timed-out process is killed and surfaces as an ExitError, so
		// the deadline check cannot hang off the error type.
		if execCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("command timeout after %v", timeout)
		}
		return result, err
	}

	return result, nil
}
