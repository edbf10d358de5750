// Package styles holds the palette and lipgloss styles of the control surface.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette and pre-built styles.
type Theme struct {
	// Title gradient
	TitleFrom lipgloss.Color
	TitleTo   lipgloss.Color

	FgBase   lipgloss.Color
	FgMuted  lipgloss.Color // help line, idle states
	FgSubtle lipgloss.Color

	Border       lipgloss.Color // game stopped
	BorderActive lipgloss.Color // game running

	Playing  lipgloss.Color
	Fallback lipgloss.Color // fallback track in place of the requested one
	Notice   lipgloss.Color
	Error    lipgloss.Color

	styles *Styles
}

// Styles contains pre-built lipgloss styles.
type Styles struct {
	Base     lipgloss.Style
	Muted    lipgloss.Style
	Subtle   lipgloss.Style
	Playing  lipgloss.Style // state icon of an audible track
	Fallback lipgloss.Style
	Notice   lipgloss.Style
	Error    lipgloss.Style
}

var defaultTheme = Theme{
	TitleFrom: lipgloss.Color("#a78bfa"),
	TitleTo:   lipgloss.Color("#f1a208"),

	FgBase:   lipgloss.Color("#c0c0c0"),
	FgMuted:  lipgloss.Color("#808080"),
	FgSubtle: lipgloss.Color("#585858"),

	Border:       lipgloss.Color("#585858"),
	BorderActive: lipgloss.Color("#42b883"),

	Playing:  lipgloss.Color("#42b883"),
	Fallback: lipgloss.Color("#f1a208"),
	Notice:   lipgloss.Color("#42b883"),
	Error:    lipgloss.Color("#ff5555"),
}

// T returns the default theme.
func T() *Theme {
	return &defaultTheme
}

// S returns the pre-built styles for this theme.
func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = t.buildStyles()
	}
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	return &Styles{
		Base:   lipgloss.NewStyle().Foreground(t.FgBase),
		Muted:  lipgloss.NewStyle().Foreground(t.FgMuted),
		Subtle: lipgloss.NewStyle().Foreground(t.FgSubtle),
		Playing: lipgloss.NewStyle().
			Foreground(t.Playing).
			Bold(true),
		Fallback: lipgloss.NewStyle().Foreground(t.Fallback),
		Notice:   lipgloss.NewStyle().Foreground(t.Notice),
		Error: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),
	}
}

// Title renders the application title with the theme gradient.
func (t *Theme) Title(text string) string {
	return ApplyBoldGradient(text, t.TitleFrom, t.TitleTo)
}
