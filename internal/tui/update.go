package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"cineboard/internal/storyboard"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case updateMsg:
		m.state = msg.Update.State
		m.clampSelection()
		return m, waitForUpdate(m.updates)
	case streamClosedMsg:
		m.closed = true
		return m, nil
	case retryStartedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.notice = ""
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("Retrying scene %d", msg.Index+1)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < m.sceneCount()-1 {
			m.selected++
		}
	case "r", "R":
		scene, ok := m.state.Scene(m.selected)
		if !ok {
			return m, nil
		}
		if scene.Status != storyboard.StatusFailed {
			m.notice = fmt.Sprintf("Scene %d is %s; only failed scenes can be retried here", m.selected+1, scene.Status)
			return m, nil
		}
		return m, requestRetry(m.session, m.selected)
	}
	return m, nil
}

func (m Model) sceneCount() int {
	if m.state.Storyboard == nil {
		return 0
	}
	return len(m.state.Storyboard.Scenes)
}

func (m *Model) clampSelection() {
	if n := m.sceneCount(); m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}
