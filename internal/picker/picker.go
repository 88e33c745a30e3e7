// Package picker reduces a list of strings to a selection through an
// interactive fuzzy finder drawn on stderr.
package picker

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/undrift/tuxmux/internal/config"
	"github.com/undrift/tuxmux/internal/logging"
)

// DefaultPrompt is shown before the query.
const DefaultPrompt = "> "

// Runner drives a model until it quits.
type Runner interface {
	Run(m tea.Model) (tea.Model, error)
}

// programRunner runs a real bubbletea program on the terminal. Bubbletea
// restores the terminal on exit and when the model panics.
type programRunner struct{}

func (programRunner) Run(m tea.Model) (tea.Model, error) {
	unmute := logging.MuteConsole()
	defer unmute()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithOutput(os.Stderr),
		tea.WithInputTTY(),
	)
	return p.Run()
}

// Picker is configured with chained setters and finished with Select or
// SelectMulti.
type Picker struct {
	mode       config.PickerMode
	items      []string
	prompt     string
	filter     string
	singleShot bool
	exact      bool
	runner     Runner
}

// New creates a picker sized by mode.
func New(mode config.PickerMode) *Picker {
	return &Picker{
		mode:   mode,
		prompt: DefaultPrompt,
		runner: programRunner{},
	}
}

// Items sets the candidates.
func (p *Picker) Items(items []string) *Picker {
	p.items = items
	return p
}

// Prompt sets the label before the query.
func (p *Picker) Prompt(prompt string) *Picker {
	p.prompt = prompt
	return p
}

// Filter prefills the query.
func (p *Picker) Filter(query string) *Picker {
	p.filter = query
	return p
}

// SingleShot returns a lone prefiltered match without showing the picker.
func (p *Picker) SingleShot(on bool) *Picker {
	p.singleShot = on
	return p
}

// Exact switches from fuzzy to substring matching.
func (p *Picker) Exact(on bool) *Picker {
	p.exact = on
	return p
}

// WithRunner replaces the terminal program, for tests.
func (p *Picker) WithRunner(r Runner) *Picker {
	p.runner = r
	return p
}

// Select returns the chosen item. ok is false when the user cancelled or
// there was nothing to choose from.
func (p *Picker) Select() (string, bool, error) {
	selected, ok, err := p.run(false)
	if err != nil || !ok || len(selected) == 0 {
		return "", false, err
	}
	return selected[0], true, nil
}

// SelectMulti returns the marked items, or the highlighted one when
// nothing was marked.
func (p *Picker) SelectMulti() ([]string, bool, error) {
	return p.run(true)
}

func (p *Picker) run(multi bool) ([]string, bool, error) {
	if len(p.items) == 0 {
		return nil, false, nil
	}

	if p.singleShot && p.filter != "" {
		m := NewMatcher(p.items, p.exact)
		m.SetQuery(p.filter)
		m.Finish()
		if m.Matched() == 1 {
			zap.L().Debug("single match, skipping picker", zap.String("query", p.filter))
			return []string{m.Snapshot()[0].Text}, true, nil
		}
	}

	model := newModel(p.items, p.mode, p.prompt, p.filter, p.exact, multi)
	final, err := p.runner.Run(model)
	if err != nil {
		return nil, false, fmt.Errorf("picker failed: %w", err)
	}

	result, ok := final.(*Model)
	if !ok {
		return nil, false, fmt.Errorf("picker returned unexpected model %T", final)
	}
	selected, ok := result.Result()
	return selected, ok, nil
}
