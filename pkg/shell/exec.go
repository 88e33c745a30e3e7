// Package shell provides utilities for executing external commands.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Result holds the output and exit code of a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command ran and exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Command describes a single process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string

	// Interactive attaches stdin, stdout and stderr to the terminal.
	Interactive bool
	// InheritStdin passes the terminal's stdin while still capturing output.
	InheritStdin bool
}

// String renders the command line the way a user would type it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner is an interface for executing commands.
// This allows for mocking in tests.
type Runner interface {
	Exec(ctx context.Context, c Command) (*Result, error)
	LookPath(name string) (string, error)
}

// DefaultRunner implements the Runner interface using real process execution.
type DefaultRunner struct{}

// NewRunner creates a new DefaultRunner.
func NewRunner() Runner {
	return &DefaultRunner{}
}

// Exec runs the command. A non-zero exit status is reported through
// Result.ExitCode, not as an error; the error is reserved for commands that
// could not be started at all.
func (r *DefaultRunner) Exec(ctx context.Context, c Command) (*Result, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)

	if c.Dir != "" {
		cmd.Dir = c.Dir
	}

	if c.Env != nil {
		cmd.Env = os.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	switch {
	case c.Interactive:
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	case c.InheritStdin:
		cmd.Stdin = os.Stdin
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	default:
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()

	result := &Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		ExitCode: 0,
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	result.ExitCode = -1
	return result, fmt.Errorf("failed to execute '%s': %w", c.Name, err)
}

// LookPath resolves a binary in PATH.
func (r *DefaultRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
