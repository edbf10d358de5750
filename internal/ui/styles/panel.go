package styles

import "github.com/charmbracelet/lipgloss"

// StatusPanel returns the status bar frame. The border is highlighted
// while the game is running.
func (t *Theme) StatusPanel(gameActive bool) lipgloss.Style {
	border := t.Border
	if gameActive {
		border = t.BorderActive
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}
