package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"cineboard/internal/workflow"
)

// waitForUpdate blocks on the subscription and delivers the next update.
func waitForUpdate(updates <-chan workflow.Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return streamClosedMsg{}
		}
		return updateMsg{Update: update}
	}
}

// requestRetry asks the orchestrator to regenerate one scene in the background.
func requestRetry(session Session, index int) tea.Cmd {
	return func() tea.Msg {
		_, err := session.RetrySceneAsync(index)
		return retryStartedMsg{Index: index, Err: err}
	}
}
