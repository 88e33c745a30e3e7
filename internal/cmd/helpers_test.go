package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/undrift/tuxmux/internal/config"
	"github.com/undrift/tuxmux/internal/mux"
	"github.com/undrift/tuxmux/internal/mux/muxtest"
	"github.com/undrift/tuxmux/internal/picker"
	"github.com/undrift/tuxmux/internal/ui"
	"github.com/undrift/tuxmux/pkg/shell"
)

// fixture wires an env to a fake tmux server and a scripted picker.
type fixture struct {
	env    *env
	server *muxtest.Tmux
	editor *shell.Recorder
	script *picker.Script
	out    *bytes.Buffer
	vars   map[string]string
	cwd    string
}

func newFixture(t *testing.T, cfg *config.Config, sessions ...string) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	f := &fixture{
		server: muxtest.NewTmux(sessions...),
		script: picker.ScriptedRunner(24),
		out:    &bytes.Buffer{},
		editor: shell.NewRecorder(nil),
		vars:   map[string]string{},
	}
	getenv := func(k string) string { return f.vars[k] }
	f.env = &env{
		cfg:    cfg,
		mux:    mux.New(config.MuxTmux, mux.WithRunner(f.server), mux.WithEnv(getenv)),
		runner: f.editor,
		stdout: f.out,
		getwd:  func() (string, error) { return f.cwd, nil },
		getenv: getenv,
		picks:  f.script,
	}
	return f
}

// keys scripts the picker input.
func (f *fixture) keys(msgs ...tea.Msg) {
	f.script.Msgs = msgs
}

// workspace creates dir/<name>/<marker> for each project and returns dir
// with symlinks resolved.
func workspace(t *testing.T, marker string, projects ...string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ws := filepath.Join(dir, "ws")
	for _, p := range projects {
		if err := os.MkdirAll(filepath.Join(ws, p, marker), 0755); err != nil {
			t.Fatal(err)
		}
	}
	return ws
}

func workspaceConfig(ws string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.WorkspaceRoots = []string{ws}
	cfg.Depth = 2
	cfg.ProjectMarkers = []string{".git"}
	return cfg
}

// captureStatus redirects status lines into the returned buffer for the
// rest of the test.
func captureStatus(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := ui.Stderr
	ui.Stderr = &buf
	t.Cleanup(func() { ui.Stderr = old })
	return &buf
}
