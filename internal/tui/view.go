package tui

import (
	"fmt"
	"strings"

	"cineboard/internal/storyboard"
	"cineboard/internal/textutil"
)

const (
	textHelp     = "↑/↓ select | r retry failed scene | q quit"
	maxMediaText = 72
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := "CineBoard"
	if m.state.Storyboard != nil {
		title = "CineBoard: " + m.state.Storyboard.Title
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(PhaseStyle.Render(textutil.Label(string(m.state.Phase))))
	b.WriteString(" ")
	b.WriteString(InfoStyle.Render("mode: " + string(m.state.Mode)))
	b.WriteString("\n\n")

	if m.state.Error != "" {
		b.WriteString(ErrorStyle.Render(m.state.Error))
		b.WriteString("\n\n")
	}

	if m.state.Storyboard == nil {
		b.WriteString(InfoStyle.Render(idleText(m.state.Phase)))
		b.WriteString("\n\n")
	} else {
		for i, scene := range m.state.Storyboard.Scenes {
			b.WriteString(m.sceneLine(i, scene))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if scene, ok := m.state.Scene(m.selected); ok {
			b.WriteString(DetailStyle.Render(sceneDetail(scene)))
			b.WriteString("\n")
		}
		b.WriteString(InfoStyle.Render(countsLine(m.state.Storyboard)))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(ErrorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	} else if m.notice != "" {
		b.WriteString(InfoStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.closed {
		b.WriteString(InfoStyle.Render("Session closed."))
		b.WriteString("\n")
	}
	b.WriteString(InfoStyle.Render(textHelp))
	return b.String()
}

func (m Model) sceneLine(i int, scene storyboard.Scene) string {
	cursor := "  "
	name := scene.Title
	if i == m.selected {
		cursor = "▸ "
		name = SelectedStyle.Render(name)
	}
	status := statusStyle(scene.Status).Render(fmt.Sprintf("[%s]", scene.Status))
	return fmt.Sprintf("%s%s  %-3d %s %s", cursor, scene.Timecode, i+1, status, name)
}

func sceneDetail(scene storyboard.Scene) string {
	lines := []string{
		fmt.Sprintf("%s  %s", scene.Timecode, scene.Title),
		"Action: " + scene.Action,
	}
	if scene.Dialogue != "" {
		lines = append(lines, "Dialogue: "+scene.Dialogue)
	}
	switch {
	case scene.MediaURL != "":
		lines = append(lines, fmt.Sprintf("%s: %s", textutil.Label(string(scene.MediaType)), truncate(scene.MediaURL, maxMediaText)))
	case scene.Error != "":
		lines = append(lines, ErrorStyle.Render("Error: "+scene.Error))
	}
	return strings.Join(lines, "\n")
}

func countsLine(board *storyboard.Storyboard) string {
	counts := board.Counts()
	return fmt.Sprintf("%d scenes: %d completed, %d failed, %d generating, %d pending",
		len(board.Scenes),
		counts[storyboard.StatusCompleted],
		counts[storyboard.StatusFailed],
		counts[storyboard.StatusGenerating],
		counts[storyboard.StatusPending],
	)
}

func idleText(phase storyboard.Phase) string {
	if phase == storyboard.PhaseAnalyzing {
		return "Analyzing story..."
	}
	return "No storyboard yet. Run 'cineboard generate' to create one."
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
