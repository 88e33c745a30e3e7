package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/undrift/tuxmux/internal/config"
	"github.com/undrift/tuxmux/internal/mux"
	"github.com/undrift/tuxmux/internal/picker"
	"github.com/undrift/tuxmux/internal/ui"
	"github.com/undrift/tuxmux/pkg/shell"
)

// ErrPromptCancelled is returned when the worktree prompt is dismissed.
var ErrPromptCancelled = errors.New("worktree selection cancelled")

// EnvError is a required part of the environment that is missing.
type EnvError struct {
	Var  string
	Hint string
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("%s is not set to an installed program", e.Var)
}

// env carries everything a command touches outside its own arguments.
type env struct {
	cfg    *config.Config
	mux    *mux.Mux
	runner shell.Runner
	stdout io.Writer
	getwd  func() (string, error)
	getenv func(string) string

	// picks drives the picker; nil shows it on the terminal.
	picks picker.Runner
}

// loadEnv reads the configuration and sets up the real backends.
func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		mux:    mux.New(cfg.Mux),
		runner: shell.NewRunner(),
		stdout: os.Stdout,
		getwd:  os.Getwd,
		getenv: os.Getenv,
	}, nil
}

// picker returns a picker configured from the settings.
func (e *env) picker(exact bool) *picker.Picker {
	p := picker.New(e.cfg.Picker).
		SingleShot(e.cfg.SingleShot).
		Exact(e.cfg.Exact || exact)
	if e.picks != nil {
		p = p.WithRunner(e.picks)
	}
	return p
}

// editor resolves $VISUAL, then $EDITOR, then vi.
func (e *env) editor() ([]string, error) {
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(e.getenv(name)); len(fields) > 0 {
			if _, err := e.runner.LookPath(fields[0]); err != nil {
				return nil, &EnvError{Var: name, Hint: fmt.Sprintf("%s is not on PATH", fields[0])}
			}
			return fields, nil
		}
	}
	if _, err := e.runner.LookPath("vi"); err != nil {
		return nil, &EnvError{Var: "EDITOR", Hint: "Set $EDITOR to your preferred editor"}
	}
	return []string{"vi"}, nil
}

// edit opens file in the user's editor and waits for it to exit.
func (e *env) edit(ctx context.Context, file string) error {
	argv, err := e.editor()
	if err != nil {
		return err
	}
	c := shell.Command{Name: argv[0], Args: append(argv[1:], file), Interactive: true}
	result, err := e.runner.Exec(ctx, c)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("%s exited with status %d", c.Name, result.ExitCode)
	}
	return nil
}

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	var missing *mux.MissingBinaryError
	var envErr *EnvError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrPromptCancelled):
		return 2
	case errors.As(err, &missing), errors.As(err, &envErr):
		return 127
	default:
		return 1
	}
}

// PrintError reports err on stderr with whatever context helps fix it.
func PrintError(err error) {
	if errors.Is(err, ErrPromptCancelled) {
		return
	}
	ui.Error(err.Error())

	var diag *config.Diagnostic
	var missing *mux.MissingBinaryError
	var envErr *EnvError
	switch {
	case errors.As(err, &diag):
		if snippet := diag.Snippet(); snippet != "" {
			ui.Hint(snippet)
		}
	case errors.As(err, &missing):
		ui.Hint(missing.Hint)
	case errors.As(err, &envErr):
		ui.Hint(envErr.Hint)
	}
}
