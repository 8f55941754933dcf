package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Accent is the highlight colour used across the UI
const Accent = lipgloss.Color("#7D56F4")

var (
	// Text styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(Accent).
		Padding(0, 1)

	Info = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#DEDEDE"))

	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888"))

	Url = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#43BF6D")).
		Underline(true)

	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF5F87")).
		Bold(true)

	Section = lipgloss.NewStyle().
		Bold(true).
		Foreground(Accent)

	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(Accent).
			Padding(0, 1)

	Item = lipgloss.NewStyle().
		Padding(0, 1)

	FilterStatus = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC")).
			Padding(0, 2)
)

// stateColors maps playback states to the colour of their badge
var stateColors = map[string]lipgloss.Color{
	"playing":   lipgloss.Color("#43BF6D"),
	"paused":    lipgloss.Color("#F2C94C"),
	"buffering": lipgloss.Color("#56CCF2"),
	"ended":     lipgloss.Color("#9D86FF"),
	"error":     lipgloss.Color("#FF5F87"),
}

// StateBadge renders a playback state as a coloured badge
func StateBadge(state string) string {
	color, ok := stateColors[state]
	if !ok {
		color = lipgloss.Color("#888888")
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#1A1A1A")).
		Background(color).
		Padding(0, 1).
		Render(state)
}

// Layout helpers
func Header(width int, title string) string {
	return Title.
		Width(width).
		Align(lipgloss.Center).
		Render(title)
}

func ContentBox(width int, content string, padding int) string {
	return lipgloss.NewStyle().
		Width(width).
		Padding(padding).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#555555")).
		Render(content)
}

func CenteredView(width int, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func CenteredText(width int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(text)
}
