package mux

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	zellijCurrentMarker = " (current)"
	zellijNoSessions    = "No active zellij sessions"
)

func zellijListSessions() []string {
	return []string{"list-sessions"}
}

func zellijCreateSession(name, cwd string) []string {
	return []string{"attach", name, "--create", "options", "--attach-to-session", "false", "--default-cwd", cwd}
}

func zellijAttach(name string) []string {
	return []string{"attach", name}
}

func zellijKillSession(name string) []string {
	return []string{"kill-session", name}
}

// zellijAction prefixes an action with the session it applies to. An
// empty session means the one this process runs in.
func zellijAction(session string, action ...string) []string {
	var args []string
	if session != "" {
		args = append(args, "--session", session)
	}
	args = append(args, "action")
	return append(args, action...)
}

func zellijRenameTab(session, name string) []string {
	return zellijAction(session, "rename-tab", name)
}

func zellijNewTab(session, name, cwd string) []string {
	args := zellijAction(session, "new-tab", "--name", name)
	if cwd != "" {
		args = append(args, "--cwd", cwd)
	}
	return args
}

func zellijTabNames(session string) []string {
	return zellijAction(session, "query-tab-names")
}

// zellijSendCommand focuses the tab named in target, types the line and
// sends a carriage return.
func zellijSendCommand(target, line string) [][]string {
	session, tab, _ := strings.Cut(target, ":")

	var steps [][]string
	if tab != "" {
		steps = append(steps, zellijAction(session, "go-to-tab-name", tab))
	}
	return append(steps,
		zellijAction(session, "write-chars", line),
		zellijAction(session, "write", "13"),
	)
}

// parseZellijSessions reads list-sessions output. Lines are coloured and
// may carry a creation note and the current-session marker.
func parseZellijSessions(out string) []SessionInfo {
	sessions := []SessionInfo{}
	for _, line := range splitLines(ansi.Strip(out)) {
		line = strings.TrimSpace(line)
		line = strings.TrimSuffix(line, zellijCurrentMarker)
		if i := strings.Index(line, " [Created "); i >= 0 {
			line = line[:i]
		}
		if line == "" {
			continue
		}
		sessions = append(sessions, SessionInfo{Name: line})
	}
	return sessions
}
