package picker

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const (
	pointer  = "▌ "
	gutter   = "  "
	mark     = "• "
	ellipsis = "…"
)

// View renders the match list bottom-to-top above the input line, pinned
// to the bottom of the screen.
func (m *Model) View() string {
	if m.finished {
		return ""
	}

	height := m.Height()
	lines := make([]string, 0, m.rows)
	for range max(m.rows-height, 0) {
		lines = append(lines, "")
	}

	snapshot := m.matcher.Snapshot()
	visible := m.listHeight()
	for row := visible - 1; row >= 0; row-- {
		i := m.offset + row
		if i >= len(snapshot) {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, m.renderRow(snapshot[i], i == m.cursor))
	}

	lines = append(lines, m.renderInput())
	return strings.Join(lines, "\n")
}

func (m *Model) renderRow(match Match, selected bool) string {
	prefix := m.styles.Row.Render(gutter)
	if selected {
		prefix = m.styles.Pointer.Render(pointer)
	}
	if m.multi && m.marked[match.Index] {
		prefix += m.styles.Marker.Render(mark)
	} else if m.multi {
		prefix += gutter
	}

	base := m.styles.Row
	if selected {
		base = m.styles.SelectedRow
	}
	text := highlight(match.Text, match.Positions, base, m.styles.Match.Inherit(base))

	avail := max(m.width-lipgloss.Width(prefix), 1)
	return prefix + ansi.Truncate(text, avail, ellipsis)
}

// highlight styles the runes at positions with hl and the rest with base.
func highlight(s string, positions []int, base, hl lipgloss.Style) string {
	if len(positions) == 0 {
		return base.Render(s)
	}

	var b strings.Builder
	var run []rune
	inMatch := false
	flush := func() {
		if len(run) == 0 {
			return
		}
		style := base
		if inMatch {
			style = hl
		}
		b.WriteString(style.Render(string(run)))
		run = run[:0]
	}

	for i, r := range []rune(s) {
		matched := slices.Contains(positions, i)
		if matched != inMatch {
			flush()
			inMatch = matched
		}
		run = append(run, r)
	}
	flush()
	return b.String()
}

// renderInput draws "<prompt><query>" with the caret and a matched/total
// counter on the right.
func (m *Model) renderInput() string {
	counter := fmt.Sprintf(" %d/%d", m.matcher.Matched(), m.matcher.Total())
	prompt := m.prompt

	avail := m.width - runewidth.StringWidth(prompt) - runewidth.StringWidth(counter) - 1
	before, after := string(m.query[:m.caret]), string(m.query[m.caret:])

	// Keep the caret on screen by dropping the query's leading cells.
	for avail > 0 && runewidth.StringWidth(before) > avail {
		_, size := firstRune(before)
		before = before[size:]
	}

	caret := " "
	if after != "" {
		r, size := firstRune(after)
		caret = string(r)
		after = after[size:]
	}
	after = runewidth.Truncate(after, max(avail-runewidth.StringWidth(before)-runewidth.StringWidth(caret), 0), "")

	left := m.styles.Prompt.Render(prompt) +
		m.styles.Query.Render(before) +
		m.styles.Caret.Render(caret) +
		m.styles.Query.Render(after)

	pad := max(m.width-lipgloss.Width(left)-runewidth.StringWidth(counter), 1)
	return left + strings.Repeat(" ", pad) + m.styles.Counter.Render(counter)
}

func firstRune(s string) (rune, int) {
	return utf8.DecodeRuneInString(s)
}
