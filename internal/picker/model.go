package picker

import (
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/undrift/tuxmux/internal/config"
)

const (
	tickInterval = 15 * time.Millisecond
	matchBudget  = 10 * time.Millisecond
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model behind the picker.
type Model struct {
	matcher *Matcher
	mode    config.PickerMode
	prompt  string
	multi   bool

	query []rune
	caret int

	// cursor indexes the snapshot; 0 is the best match, drawn lowest.
	cursor int
	offset int
	marked map[int]bool

	width  int
	rows   int
	keys   KeyMap
	styles Styles

	finished  bool
	cancelled bool
	selected  []string
}

func newModel(items []string, mode config.PickerMode, prompt, query string, exact, multi bool) *Model {
	m := &Model{
		matcher: NewMatcher(items, exact),
		mode:    mode,
		prompt:  prompt,
		multi:   multi,
		query:   []rune(query),
		marked:  map[int]bool{},
		width:   80,
		rows:    24,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
	}
	m.caret = len(m.query)
	m.matcher.SetQuery(query)
	return m
}

// Init starts the matcher ticks.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.matcher.Tick(matchBudget)
		m.clamp()
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.rows = msg.Height
		m.clamp()
		return m, nil

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.move(1)
		case tea.MouseButtonWheelDown:
			m.move(-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.finished = true
		m.cancelled = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Accept):
		m.accept()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.move(1)
	case key.Matches(msg, m.keys.Down):
		m.move(-1)

	case key.Matches(msg, m.keys.Left):
		m.caret = max(m.caret-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.caret = min(m.caret+1, len(m.query))
	case key.Matches(msg, m.keys.LineStart):
		m.caret = 0
	case key.Matches(msg, m.keys.LineEnd):
		m.caret = len(m.query)

	case key.Matches(msg, m.keys.Backspace):
		if m.caret > 0 {
			m.query = slices.Delete(m.query, m.caret-1, m.caret)
			m.caret--
			m.refilter()
		}
	case key.Matches(msg, m.keys.Delete):
		if m.caret < len(m.query) {
			m.query = slices.Delete(m.query, m.caret, m.caret+1)
			m.refilter()
		}

	case m.multi && key.Matches(msg, m.keys.Toggle):
		m.toggle()

	case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
		r := msg.Runes
		if msg.Type == tea.KeySpace {
			r = []rune{' '}
		}
		m.query = slices.Insert(m.query, m.caret, r...)
		m.caret += len(r)
		m.refilter()
	}

	return m, nil
}

func (m *Model) refilter() {
	m.matcher.SetQuery(string(m.query))
	m.cursor = 0
	m.offset = 0
}

func (m *Model) move(delta int) {
	m.cursor += delta
	m.clamp()
}

// clamp keeps the highlight inside [0, matched) and scrolls it into view.
func (m *Model) clamp() {
	matched := m.matcher.Matched()
	m.cursor = max(min(m.cursor, matched-1), 0)

	visible := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	m.offset = max(min(m.offset, matched-visible), 0)
}

func (m *Model) toggle() {
	snapshot := m.matcher.Snapshot()
	if m.cursor >= len(snapshot) {
		return
	}
	i := snapshot[m.cursor].Index
	if m.marked[i] {
		delete(m.marked, i)
	} else {
		m.marked[i] = true
	}
	m.move(1)
}

// accept finishes with the marked items in input order, or the highlighted
// item when nothing is marked. With no matches the picker is cancelled.
func (m *Model) accept() {
	m.finished = true
	m.matcher.Finish()
	snapshot := m.matcher.Snapshot()

	if m.multi && len(m.marked) > 0 {
		indices := make([]int, 0, len(m.marked))
		for i := range m.marked {
			indices = append(indices, i)
		}
		slices.Sort(indices)
		for _, i := range indices {
			m.selected = append(m.selected, m.matcher.items[i])
		}
		return
	}

	m.clamp()
	if len(snapshot) == 0 {
		m.cancelled = true
		return
	}
	m.selected = []string{snapshot[m.cursor].Text}
}

// Height is the number of terminal rows the picker occupies. It is at
// least 2 so the input line and one match stay visible.
func (m *Model) Height() int {
	return min(max(m.mode.Height(m.rows), 2), max(m.rows, 2))
}

// listHeight is the number of match rows above the input line.
func (m *Model) listHeight() int {
	return max(m.Height()-1, 1)
}

// Result returns the selection once the model has finished.
func (m *Model) Result() (selected []string, ok bool) {
	if !m.finished || m.cancelled {
		return nil, false
	}
	return m.selected, true
}
