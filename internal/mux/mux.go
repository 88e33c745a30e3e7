// Package mux drives the terminal multiplexer as a subprocess.
//
// A Mux is a tagged variant: Kind selects the backend once and every
// method switches on it.
package mux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/undrift/tuxmux/internal/config"
	"github.com/undrift/tuxmux/pkg/shell"
)

// Environment variables consulted by the backends.
const (
	EnvTmux          = "TMUX"
	EnvTmuxSocket    = "TMS_TMUX_SOCKET"
	EnvZellijSession = "ZELLIJ_SESSION_NAME"

	DefaultSocket = "default"
)

// CommandError is a backend command that exited non-zero.
type CommandError struct {
	Backend  string
	Command  string
	Stderr   string
	ExitCode int
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: `%s` exited with status %d", e.Backend, e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// MissingBinaryError means the backend binary is not installed.
type MissingBinaryError struct {
	Name string
	Hint string
}

func (e *MissingBinaryError) Error() string {
	return fmt.Sprintf("%s is not installed", e.Name)
}

// SessionInfo describes one running session.
type SessionInfo struct {
	Name string
	// Attached is the number of attached clients. It is only meaningful
	// when HasAttached is set.
	Attached    int
	HasAttached bool
}

// Mux is a multiplexer backend.
type Mux struct {
	Kind config.MuxKind

	runner shell.Runner
	getenv func(string) string
	tmux   tmuxState
}

// Option configures a Mux.
type Option func(*Mux)

// WithRunner replaces the subprocess runner.
func WithRunner(r shell.Runner) Option {
	return func(m *Mux) { m.runner = r }
}

// WithEnv replaces the environment lookup.
func WithEnv(getenv func(string) string) Option {
	return func(m *Mux) { m.getenv = getenv }
}

// New creates a Mux for kind.
func New(kind config.MuxKind, opts ...Option) *Mux {
	m := &Mux{
		Kind:   kind,
		runner: shell.NewRunner(),
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(m)
	}

	if kind == config.MuxTmux {
		m.tmux.socket = m.getenv(EnvTmuxSocket)
		if m.tmux.socket == "" {
			m.tmux.socket = DefaultSocket
		}
	}
	return m
}

// Binary is the executable the backend invokes.
func (m *Mux) Binary() string {
	return string(m.Kind)
}

// InstallHint points at the backend's install instructions.
func (m *Mux) InstallHint() string {
	switch m.Kind {
	case config.MuxZellij:
		return "Install zellij: https://zellij.dev/documentation/installation"
	default:
		return "Install tmux: https://github.com/tmux/tmux/wiki/Installing"
	}
}

// Available checks that the backend binary is on PATH.
func (m *Mux) Available() error {
	if _, err := m.runner.LookPath(m.Binary()); err != nil {
		return &MissingBinaryError{Name: m.Binary(), Hint: m.InstallHint()}
	}
	return nil
}

// ListSessions returns session names in backend order. No running server
// means no sessions; any other failure is a CommandError.
func (m *Mux) ListSessions(ctx context.Context) ([]string, error) {
	infos, err := m.SessionInfos(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names, nil
}

// SessionInfos returns the running sessions with whatever metadata the
// backend reports.
func (m *Mux) SessionInfos(ctx context.Context) ([]SessionInfo, error) {
	var args []string
	switch m.Kind {
	case config.MuxZellij:
		args = zellijListSessions()
	default:
		args = m.tmux.listSessions()
	}

	c := shell.Command{Args: args}
	result, err := m.run(ctx, c)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		if !m.noSessions(result) {
			return nil, m.commandError(c, result)
		}
		zap.L().Debug("no sessions", zap.String("backend", m.Binary()), zap.String("stderr", result.Stderr))
		return []SessionInfo{}, nil
	}

	switch m.Kind {
	case config.MuxZellij:
		return parseZellijSessions(result.Stdout), nil
	default:
		return parseTmuxSessions(result.Stdout), nil
	}
}

// SessionExists reports whether a session with exactly this name runs.
func (m *Mux) SessionExists(ctx context.Context, name string) (bool, error) {
	switch m.Kind {
	case config.MuxZellij:
		names, err := m.ListSessions(ctx)
		if err != nil {
			return false, err
		}
		return slices.Contains(names, name), nil
	default:
		result, err := m.run(ctx, shell.Command{Args: m.tmux.hasSession(name)})
		if err != nil {
			return false, err
		}
		return result.Success(), nil
	}
}

// CreateSession starts a detached session with its shell in cwd. window
// names the first window when not empty.
func (m *Mux) CreateSession(ctx context.Context, name, cwd, window string) error {
	switch m.Kind {
	case config.MuxZellij:
		if err := m.exec(ctx, shell.Command{Args: zellijCreateSession(name, cwd), InheritStdin: true}); err != nil {
			return err
		}
		if window == "" {
			return nil
		}
		return m.exec(ctx, shell.Command{Args: zellijRenameTab(name, window)})
	default:
		return m.exec(ctx, shell.Command{Args: m.tmux.newSession(name, cwd, window), InheritStdin: true})
	}
}

// AttachSession takes over the terminal with the session. Inside tmux the
// current client is switched instead.
func (m *Mux) AttachSession(ctx context.Context, name string) error {
	var args []string
	switch m.Kind {
	case config.MuxZellij:
		args = zellijAttach(name)
	default:
		args = m.tmux.attach(name, m.getenv(EnvTmux) != "")
	}
	return m.exec(ctx, shell.Command{Args: args, Interactive: true})
}

// KillSession stops the session.
func (m *Mux) KillSession(ctx context.Context, name string) error {
	switch m.Kind {
	case config.MuxZellij:
		return m.exec(ctx, shell.Command{Args: zellijKillSession(name)})
	default:
		return m.exec(ctx, shell.Command{Args: m.tmux.killSession(name)})
	}
}

// CreateWindow opens a window in the current session. cwd may be empty.
func (m *Mux) CreateWindow(ctx context.Context, name, cwd string) error {
	switch m.Kind {
	case config.MuxZellij:
		return m.exec(ctx, shell.Command{Args: zellijNewTab("", name, cwd)})
	default:
		return m.exec(ctx, shell.Command{Args: m.tmux.newWindow("", name, cwd)})
	}
}

// CreateWindowIn opens a window in session without switching to it.
func (m *Mux) CreateWindowIn(ctx context.Context, session, name, cwd string) error {
	switch m.Kind {
	case config.MuxZellij:
		return m.exec(ctx, shell.Command{Args: zellijNewTab(session, name, cwd)})
	default:
		return m.exec(ctx, shell.Command{Args: m.tmux.newWindow(session, name, cwd)})
	}
}

// WindowExists reports whether session has a window called name.
func (m *Mux) WindowExists(ctx context.Context, session, name string) (bool, error) {
	var args []string
	switch m.Kind {
	case config.MuxZellij:
		args = zellijTabNames(session)
	default:
		args = m.tmux.listWindows(session)
	}

	result, err := m.run(ctx, shell.Command{Args: args})
	if err != nil {
		return false, err
	}
	if !result.Success() {
		return false, nil
	}
	return slices.Contains(splitLines(result.Stdout), name), nil
}

// SendCommand types line into target, a "session:window" address, and
// presses Enter.
func (m *Mux) SendCommand(ctx context.Context, target, line string) error {
	var steps [][]string
	switch m.Kind {
	case config.MuxZellij:
		steps = zellijSendCommand(target, line)
	default:
		steps = m.tmux.sendCommand(target, line)
	}

	for _, args := range steps {
		if err := m.exec(ctx, shell.Command{Args: args}); err != nil {
			return err
		}
	}
	return nil
}

// CurrentSessionName returns the session this process runs in.
func (m *Mux) CurrentSessionName(ctx context.Context) (string, bool) {
	switch m.Kind {
	case config.MuxZellij:
		name := m.getenv(EnvZellijSession)
		return name, name != ""
	default:
		if m.getenv(EnvTmux) == "" {
			return "", false
		}
		result, err := m.run(ctx, shell.Command{Args: m.tmux.displaySession()})
		if err != nil || !result.Success() || result.Stdout == "" {
			return "", false
		}
		return result.Stdout, true
	}
}

// CreateOrAttach attaches to name, creating it at path first when it does
// not exist.
func (m *Mux) CreateOrAttach(ctx context.Context, name, path string) error {
	exists, err := m.SessionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		if err := m.CreateSession(ctx, name, path, ""); err != nil {
			return err
		}
	}
	return m.AttachSession(ctx, name)
}

// FormatName derives a session name from a path leaf. Dots are not valid
// in tmux session names.
func FormatName(leaf string) string {
	return strings.ReplaceAll(leaf, ".", "_")
}

// exec runs the command and turns a non-zero exit into a CommandError.
func (m *Mux) exec(ctx context.Context, c shell.Command) error {
	result, err := m.run(ctx, c)
	if err != nil {
		return err
	}
	if !result.Success() {
		return m.commandError(c, result)
	}
	return nil
}

func (m *Mux) commandError(c shell.Command, result *shell.Result) *CommandError {
	return &CommandError{
		Backend:  m.Binary(),
		Command:  m.command(c).String(),
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
	}
}

// noSessions reports whether a failed list-sessions only means that no
// server is running.
func (m *Mux) noSessions(result *shell.Result) bool {
	out := result.Stderr + "\n" + result.Stdout
	switch m.Kind {
	case config.MuxZellij:
		return strings.Contains(out, zellijNoSessions)
	default:
		return strings.Contains(out, tmuxNoServer) || strings.Contains(out, tmuxNoSocket)
	}
}

// run invokes the backend binary with c.Args. Only start failures are
// errors.
func (m *Mux) run(ctx context.Context, c shell.Command) (*shell.Result, error) {
	c = m.command(c)
	zap.L().Debug("mux command", zap.String("backend", m.Binary()), zap.Stringer("command", c))

	result, err := m.runner.Exec(ctx, c)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &MissingBinaryError{Name: m.Binary(), Hint: m.InstallHint()}
		}
		return nil, fmt.Errorf("failed to run %s: %w", m.Binary(), err)
	}
	return result, nil
}

func (m *Mux) command(c shell.Command) shell.Command {
	c.Name = m.Binary()
	if m.Kind == config.MuxTmux {
		c.Args = append([]string{"-L", m.tmux.socket}, c.Args...)
	}
	return c
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
