package picker

import (
	"os"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles for the picker.
type Styles struct {
	Row         lipgloss.Style
	SelectedRow lipgloss.Style
	Match       lipgloss.Style
	Pointer     lipgloss.Style
	Marker      lipgloss.Style
	Prompt      lipgloss.Style
	Query       lipgloss.Style
	Caret       lipgloss.Style
	Counter     lipgloss.Style
}

func color(c catppuccin.Color) lipgloss.Color {
	return lipgloss.Color(c.Hex)
}

// DefaultStyles derives the styles from the Catppuccin Mocha palette, with
// the color profile of stderr where the picker is drawn.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.NewRenderer(os.Stderr), catppuccin.Mocha)
}

// NewStyles derives the styles from a Catppuccin flavor.
func NewStyles(r *lipgloss.Renderer, flavor catppuccin.Flavor) Styles {
	return Styles{
		Row: r.NewStyle().
			Foreground(color(flavor.Subtext1())),
		SelectedRow: r.NewStyle().
			Foreground(color(flavor.Text())).
			Background(color(flavor.Surface0())).
			Bold(true),
		Match: r.NewStyle().
			Foreground(color(flavor.Peach())).
			Bold(true),
		Pointer: r.NewStyle().
			Foreground(color(flavor.Mauve())).
			Background(color(flavor.Surface0())).
			Bold(true),
		Marker: r.NewStyle().
			Foreground(color(flavor.Green())),
		Prompt: r.NewStyle().
			Foreground(color(flavor.Blue())).
			Bold(true),
		Query: r.NewStyle().
			Foreground(color(flavor.Text())),
		Caret: r.NewStyle().
			Reverse(true),
		Counter: r.NewStyle().
			Foreground(color(flavor.Overlay0())),
	}
}
