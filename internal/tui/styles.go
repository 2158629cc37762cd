package tui

import (
	"github.com/charmbracelet/lipgloss"

	"cineboard/internal/storyboard"
)

const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorError   = "#FF5F5F"
	colorWarn    = "#F5A623"
	colorInfo    = "#626262"
	colorText    = "#FAFAFA"
	colorBorder  = "#874BFD"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary)).
			MarginBottom(1)

	PhaseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorText)).
			Background(lipgloss.Color(colorPrimary)).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorInfo))

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorText))

	DetailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)
)

var statusStyles = map[storyboard.SceneStatus]lipgloss.Style{
	storyboard.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorInfo)),
	storyboard.StatusGenerating: lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn)),
	storyboard.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
	storyboard.StatusFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)),
}

func statusStyle(status storyboard.SceneStatus) lipgloss.Style {
	if style, ok := statusStyles[status]; ok {
		return style
	}
	return InfoStyle
}
