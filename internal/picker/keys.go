package picker

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the picker's keyboard bindings.
type KeyMap struct {
	Cancel    key.Binding
	Accept    key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	LineStart key.Binding
	LineEnd   key.Binding
	Backspace key.Binding
	Delete    key.Binding
	Toggle    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c", "ctrl+d", "ctrl+z"),
			key.WithHelp("esc", "cancel"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("up/ctrl+p", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("down/ctrl+n", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "ctrl+b", "ctrl+h"),
			key.WithHelp("left", "caret left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "ctrl+f", "ctrl+l"),
			key.WithHelp("right", "caret right"),
		),
		LineStart: key.NewBinding(
			key.WithKeys("home", "ctrl+a"),
			key.WithHelp("home", "start of line"),
		),
		LineEnd: key.NewBinding(
			key.WithKeys("end", "ctrl+e"),
			key.WithHelp("end", "end of line"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("backspace", "delete before caret"),
		),
		Delete: key.NewBinding(
			key.WithKeys("delete"),
			key.WithHelp("delete", "delete at caret"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "mark"),
		),
	}
}
