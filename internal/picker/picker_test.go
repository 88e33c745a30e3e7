package picker

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/undrift/tuxmux/internal/config"
)

var half = config.PercentagePicker(0.5)

func TestSelect_EmptyItems(t *testing.T) {
	script := ScriptedRunner(24)
	got, ok, err := New(half).Items(nil).WithRunner(script).Select()
	if err != nil || ok || got != "" {
		t.Errorf("Select() = %q, %v, %v, want cancelled", got, ok, err)
	}
	if script.Runs != 0 {
		t.Error("picker should not be shown without items")
	}
}

func TestSelect_SingleShot(t *testing.T) {
	script := ScriptedRunner(24)
	got, ok, err := New(half).
		Items([]string{"/ws/alpha", "/ws/beta"}).
		Filter("alph").
		SingleShot(true).
		WithRunner(script).
		Select()

	if err != nil || !ok || got != "/ws/alpha" {
		t.Errorf("Select() = %q, %v, %v, want /ws/alpha", got, ok, err)
	}
	if script.Runs != 0 {
		t.Error("single shot should not show the picker")
	}
}

func TestSelect_SingleShotDisabled(t *testing.T) {
	script := ScriptedRunner(24, Press(tea.KeyEnter))
	got, ok, _ := New(half).
		Items([]string{"/ws/alpha", "/ws/beta"}).
		Filter("alph").
		WithRunner(script).
		Select()

	if script.Runs != 1 {
		t.Error("picker should be shown when single shot is off")
	}
	if !ok || got != "/ws/alpha" {
		t.Errorf("Select() = %q, %v", got, ok)
	}
}

func TestSelect_HighlightMovesUp(t *testing.T) {
	script := ScriptedRunner(24, Press(tea.KeyUp), Press(tea.KeyEnter))
	got, ok, err := New(half).Items([]string{"one", "two"}).WithRunner(script).Select()

	if err != nil || !ok || got != "two" {
		t.Errorf("Select() = %q, %v, %v, want two", got, ok, err)
	}
	if script.Height != 12 {
		t.Errorf("Height = %d, want 12", script.Height)
	}
}

func TestSelect_HighlightIsClamped(t *testing.T) {
	script := ScriptedRunner(24,
		Press(tea.KeyDown), Press(tea.KeyDown),
		Press(tea.KeyUp), Press(tea.KeyUp), Press(tea.KeyUp), Press(tea.KeyUp),
		Press(tea.KeyEnter),
	)
	got, _, _ := New(half).Items([]string{"a", "b", "c"}).WithRunner(script).Select()
	if got != "c" {
		t.Errorf("Select() = %q, want c", got)
	}
}

func TestSelect_TypingFilters(t *testing.T) {
	script := ScriptedRunner(24, Type("bet"), Press(tea.KeyEnter))
	got, ok, _ := New(half).Items([]string{"/ws/alpha", "/ws/beta"}).WithRunner(script).Select()
	if !ok || got != "/ws/beta" {
		t.Errorf("Select() = %q, %v, want /ws/beta", got, ok)
	}
}

func TestSelect_EditingQuery(t *testing.T) {
	script := ScriptedRunner(24,
		Type("gamx"),
		Press(tea.KeyBackspace),
		Press(tea.KeyLeft), Press(tea.KeyLeft), Press(tea.KeyLeft),
		Press(tea.KeyDelete),
		Press(tea.KeyEnter),
	)
	// "gamx" -> "gam" -> caret before "g" -> delete "g" -> "am"
	got, ok, _ := New(half).Items([]string{"gamma", "beta"}).WithRunner(script).Select()
	if !ok || got != "gamma" {
		t.Errorf("Select() = %q, %v, want gamma", got, ok)
	}
}

func TestSelect_Cancel(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyCtrlZ} {
		script := ScriptedRunner(24, Press(k))
		got, ok, err := New(half).Items([]string{"a"}).WithRunner(script).Select()
		if err != nil || ok || got != "" {
			t.Errorf("%v: Select() = %q, %v, %v, want cancelled", k, got, ok, err)
		}
	}
}

func TestSelect_NoMatchesCancels(t *testing.T) {
	script := ScriptedRunner(24, Type("zzz"), Press(tea.KeyEnter))
	if _, ok, _ := New(half).Items([]string{"a"}).WithRunner(script).Select(); ok {
		t.Error("Enter with no matches should cancel")
	}
}

func TestSelectMulti_Marks(t *testing.T) {
	script := ScriptedRunner(24,
		Press(tea.KeyTab), // marks "a", moves to "b"
		Press(tea.KeyUp),  // "c"
		Press(tea.KeyTab), // marks "c"
		Press(tea.KeyEnter),
	)
	got, ok, err := New(half).Items([]string{"a", "b", "c"}).WithRunner(script).SelectMulti()
	if err != nil || !ok {
		t.Fatalf("SelectMulti() ok = %v, err = %v", ok, err)
	}
	if want := []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SelectMulti() = %v, want %v", got, want)
	}
}

func TestSelectMulti_NoMarksReturnsHighlight(t *testing.T) {
	script := ScriptedRunner(24, Press(tea.KeyEnter))
	got, ok, _ := New(half).Items([]string{"a", "b"}).WithRunner(script).SelectMulti()
	if !ok || !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("SelectMulti() = %v, %v", got, ok)
	}
}

func TestSelect_ScriptEndsEarly(t *testing.T) {
	script := ScriptedRunner(24, Type("a"))
	if _, _, err := New(half).Items([]string{"a"}).WithRunner(script).Select(); err == nil {
		t.Error("Select() should fail when the script runs out")
	}
}

func TestView_Layout(t *testing.T) {
	script := ScriptedRunner(10, Type("a"), Press(tea.KeyEsc))
	New(config.LinesPicker(4)).Prompt("pick> ").Items([]string{"alpha", "beta", "gamma"}).WithRunner(script).Select()

	frame := script.Frames[0]
	lines := strings.Split(frame, "\n")
	if len(lines) != 10 {
		t.Fatalf("frame has %d lines, want 10", len(lines))
	}
	for _, l := range lines[:6] {
		if l != "" {
			t.Errorf("expected blank padding above the picker, got %q", l)
		}
	}

	input := lines[9]
	if !strings.Contains(input, "pick> ") || !strings.Contains(input, "3/3") {
		t.Errorf("input line = %q, want prompt and counter", input)
	}
	// Best match sits directly above the input line.
	if !strings.Contains(lines[8], "alpha") {
		t.Errorf("lowest row = %q, want the best match", lines[8])
	}
}

func TestModel_WheelScrolls(t *testing.T) {
	m := newModel([]string{"a", "b", "c"}, half, DefaultPrompt, "", false, false)
	m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	if m.cursor != 1 {
		t.Errorf("cursor = %d after wheel up, want 1", m.cursor)
	}
	m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after wheel down, want 0", m.cursor)
	}
}

func TestModel_Height(t *testing.T) {
	tests := []struct {
		mode config.PickerMode
		rows int
		want int
	}{
		{config.FullPicker(), 30, 30},
		{config.LinesPicker(10), 30, 10},
		{config.LinesPicker(50), 30, 30},
		{config.PercentagePicker(0.5), 25, 12},
		{config.PercentagePicker(0.1), 5, 2},
		{config.LinesPicker(1), 30, 2},
	}

	for _, tt := range tests {
		m := newModel([]string{"x"}, tt.mode, DefaultPrompt, "", false, false)
		m.Update(tea.WindowSizeMsg{Width: 80, Height: tt.rows})
		if got := m.Height(); got != tt.want {
			t.Errorf("%v at %d rows: Height() = %d, want %d", tt.mode, tt.rows, got, tt.want)
		}
	}
}
