package picker

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Script is a Runner that feeds a fixed sequence of messages to the model
// instead of reading the terminal. The matcher is run to completion before
// each message so results do not depend on timing.
type Script struct {
	Rows  int
	Width int
	Msgs  []tea.Msg

	// Frames holds the view rendered after each message.
	Frames []string
	// Height is the picker height resolved against Rows.
	Height int
	// Items are the candidates the picker was started with.
	Items []string
	// Runs counts how often the picker was shown.
	Runs int
}

// ScriptedRunner returns a Script for a terminal with the given rows.
func ScriptedRunner(rows int, msgs ...tea.Msg) *Script {
	return &Script{Rows: rows, Width: 80, Msgs: msgs}
}

// Type is the message for typing s.
func Type(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// Press is the message for a special key.
func Press(k tea.KeyType) tea.Msg {
	return tea.KeyMsg{Type: k}
}

// Run implements Runner.
func (s *Script) Run(tm tea.Model) (tea.Model, error) {
	m, ok := tm.(*Model)
	if !ok {
		return tm, errors.New("script can only drive picker models")
	}

	s.Runs++
	s.Items = append([]string(nil), m.matcher.items...)
	s.Frames = nil
	m.Update(tea.WindowSizeMsg{Width: s.Width, Height: s.Rows})
	s.Height = m.Height()

	for _, msg := range s.Msgs {
		m.matcher.Finish()
		m.Update(tickMsg{})
		m.Update(msg)
		s.Frames = append(s.Frames, m.View())
		if m.finished {
			return m, nil
		}
	}
	return m, errors.New("script ended before the picker finished")
}
