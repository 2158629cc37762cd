package tui

import "cineboard/internal/workflow"

// updateMsg carries one orchestrator update into the program.
type updateMsg struct {
	Update workflow.Update
}

// streamClosedMsg reports that the orchestrator ended the subscription.
type streamClosedMsg struct{}

// retryStartedMsg reports the outcome of a retry request.
type retryStartedMsg struct {
	Index int
	Err   error
}
