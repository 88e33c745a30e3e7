// Package muxtest provides an in-memory tmux server for tests. It answers
// the commands the tmux backend issues and records every call.
package muxtest

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/undrift/tuxmux/pkg/shell"
)

// Tmux fakes a tmux server behind a shell.Recorder.
type Tmux struct {
	*shell.Recorder

	mu       sync.Mutex
	sessions []string
	windows  map[string][]string
	clients  map[string]int
	// Current is the session display-message reports.
	Current string
}

// NewTmux starts a fake server with the given sessions.
func NewTmux(sessions ...string) *Tmux {
	f := &Tmux{windows: map[string][]string{}, clients: map[string]int{}}
	for _, s := range sessions {
		f.sessions = append(f.sessions, s)
		f.windows[s] = []string{"shell"}
	}
	f.Recorder = shell.NewRecorder(f.handle)
	return f
}

// Sessions returns the running sessions in creation order.
func (f *Tmux) Sessions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sessions)
}

// SetClients sets the number of clients list-sessions reports as attached
// to session.
func (f *Tmux) SetClients(session string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[session] = n
}

// Windows returns the window names of session.
func (f *Tmux) Windows(session string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.windows[session])
}

// Verbs returns the tmux subcommand of each recorded call, without the
// socket flag.
func (f *Tmux) Verbs() []string {
	var out []string
	for _, c := range f.Calls() {
		out = append(out, strings.Join(stripSocket(c.Args), " "))
	}
	return out
}

func stripSocket(args []string) []string {
	if len(args) >= 2 && args[0] == "-L" {
		return args[2:]
	}
	return args
}

func (f *Tmux) handle(c shell.Command) (*shell.Result, error) {
	args := stripSocket(c.Args)
	if len(args) == 0 {
		return shell.Failf(1, "usage: tmux command"), nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	verb, rest := args[0], args[1:]
	target := strings.TrimSuffix(strings.TrimPrefix(flag(rest, "-t"), "="), ":")

	switch verb {
	case "list-sessions":
		if len(f.sessions) == 0 {
			return shell.Failf(1, "no server running on /tmp/tmux-0/default"), nil
		}
		var b strings.Builder
		for _, s := range f.sessions {
			fmt.Fprintf(&b, "%s\t%d\n", s, f.clients[s])
		}
		return shell.Exit(0, b.String()), nil

	case "has-session":
		if !slices.Contains(f.sessions, target) {
			return shell.Failf(1, "can't find session: %s", target), nil
		}
		return shell.Exit(0, ""), nil

	case "new-session":
		name := flag(rest, "-s")
		if slices.Contains(f.sessions, name) {
			return shell.Failf(1, "duplicate session: %s", name), nil
		}
		window := flag(rest, "-n")
		if window == "" {
			window = "shell"
		}
		f.sessions = append(f.sessions, name)
		f.windows[name] = []string{window}
		return shell.Exit(0, ""), nil

	case "attach-session", "switch-client", "kill-session", "list-windows":
		if !slices.Contains(f.sessions, target) {
			return shell.Failf(1, "can't find session: %s", target), nil
		}
		switch verb {
		case "kill-session":
			f.sessions = slices.DeleteFunc(f.sessions, func(s string) bool { return s == target })
			delete(f.windows, target)
			delete(f.clients, target)
		case "list-windows":
			return shell.Exit(0, strings.Join(f.windows[target], "\n")), nil
		}
		return shell.Exit(0, ""), nil

	case "new-window":
		session := target
		if session == "" {
			session = f.Current
		}
		if !slices.Contains(f.sessions, session) {
			return shell.Failf(1, "can't find session: %s", session), nil
		}
		f.windows[session] = append(f.windows[session], flag(rest, "-n"))
		return shell.Exit(0, ""), nil

	case "display-message":
		if f.Current == "" {
			return shell.Failf(1, "no current client"), nil
		}
		return shell.Exit(0, f.Current), nil

	case "send-keys":
		return shell.Exit(0, ""), nil
	}

	return shell.Failf(1, "unknown command: %s", verb), nil
}

// flag returns the value following name in args.
func flag(args []string, name string) string {
	for i, a := range args {
		if a == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
