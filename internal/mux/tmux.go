package mux

import (
	"strconv"
	"strings"
)

// Messages tmux prints when no server listens on the socket.
const (
	tmuxNoServer = "no server running"
	tmuxNoSocket = "error connecting to"
)

// tmuxState is the tmux backend's per-process state. Every command runs
// against the same server socket.
type tmuxState struct {
	socket string
}

// exact makes tmux match the session name literally instead of by prefix.
func exact(session string) string {
	return "=" + session
}

func (tmuxState) listSessions() []string {
	return []string{"list-sessions", "-F", "#{session_name}\t#{session_attached}"}
}

func (tmuxState) hasSession(name string) []string {
	return []string{"has-session", "-t", exact(name)}
}

func (tmuxState) newSession(name, cwd, window string) []string {
	args := []string{"new-session", "-d", "-s", name, "-c", cwd}
	if window != "" {
		args = append(args, "-n", window)
	}
	return args
}

func (tmuxState) attach(name string, insideTmux bool) []string {
	if insideTmux {
		return []string{"switch-client", "-t", exact(name)}
	}
	return []string{"attach-session", "-t", exact(name)}
}

func (tmuxState) killSession(name string) []string {
	return []string{"kill-session", "-t", exact(name)}
}

// newWindow targets the current session when session is empty.
func (tmuxState) newWindow(session, name, cwd string) []string {
	args := []string{"new-window"}
	if session != "" {
		args = append(args, "-d", "-t", exact(session)+":")
	}
	args = append(args, "-n", name)
	if cwd != "" {
		args = append(args, "-c", cwd)
	}
	return args
}

func (tmuxState) listWindows(session string) []string {
	return []string{"list-windows", "-t", exact(session), "-F", "#{window_name}"}
}

// sendCommand sends the text literally so key names inside it are not
// interpreted, then a separate Enter.
func (tmuxState) sendCommand(target, line string) [][]string {
	return [][]string{
		{"send-keys", "-t", target, "-l", line},
		{"send-keys", "-t", target, "Enter"},
	}
}

func (tmuxState) displaySession() []string {
	return []string{"display-message", "-p", "#S"}
}

func parseTmuxSessions(out string) []SessionInfo {
	sessions := []SessionInfo{}
	for _, line := range splitLines(out) {
		name, attached, found := strings.Cut(line, "\t")
		info := SessionInfo{Name: name}
		if found {
			if n, err := strconv.Atoi(strings.TrimSpace(attached)); err == nil {
				info.Attached = n
				info.HasAttached = true
			}
		}
		sessions = append(sessions, info)
	}
	return sessions
}
