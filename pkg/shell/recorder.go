package shell

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Recorder is a Runner that records every command instead of executing it.
// Tests in other packages use it to assert on the exact argv a component
// produced.
type Recorder struct {
	mu    sync.Mutex
	calls []Command

	// Handler, when set, decides the result of each call. Calls default to
	// an empty successful result.
	Handler func(c Command) (*Result, error)
	// Missing lists binaries that LookPath reports as absent.
	Missing map[string]bool
}

// NewRecorder creates a Recorder with the given handler.
func NewRecorder(handler func(c Command) (*Result, error)) *Recorder {
	return &Recorder{Handler: handler, Missing: map[string]bool{}}
}

// Exec records the command and returns the handler's result. Missing
// binaries fail the way a real start failure does.
func (r *Recorder) Exec(ctx context.Context, c Command) (*Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	handler := r.Handler
	missing := r.Missing[c.Name]
	r.mu.Unlock()

	if missing {
		return &Result{ExitCode: -1}, fmt.Errorf("failed to execute '%s': %w", c.Name, &exec.Error{Name: c.Name, Err: exec.ErrNotFound})
	}
	if handler == nil {
		return &Result{}, nil
	}
	return handler(c)
}

// LookPath pretends every binary is installed except the Missing ones.
func (r *Recorder) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Missing[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}

// Calls returns a copy of the recorded commands.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.calls))
	copy(out, r.calls)
	return out
}

// Lines returns the recorded commands rendered with Command.String.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Reset forgets all recorded commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// Exit builds a result with the given exit code and output, for handlers.
func Exit(code int, stdout string) *Result {
	return &Result{ExitCode: code, Stdout: strings.TrimSpace(stdout)}
}

// Failf builds a failing result whose stderr carries the formatted message.
func Failf(code int, format string, args ...any) *Result {
	return &Result{ExitCode: code, Stderr: fmt.Sprintf(format, args...)}
}
