package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	choiceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginTop(1)

	// severeStyle renders the potentially-unbootable message tier.
	severeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// RenderSevere formats a message in the most severe visual tier, used for
// failures that may have left the machine unbootable.
func RenderSevere(msg string) string {
	return severeStyle.Render(msg)
}
