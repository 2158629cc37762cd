package api

import (
	"context"

	"cineboard/internal/session"
	"cineboard/internal/storyboard"
	"cineboard/internal/workflow"
)

// Orchestrator is the session surface the API drives. *workflow.Orchestrator
// satisfies it.
type Orchestrator interface {
	Snapshot() session.State
	Status() workflow.StatusSummary
	StartGenerationAsync(text string, mode storyboard.Mode) (<-chan struct{}, error)
	RetrySceneAsync(index int) (<-chan struct{}, error)
	Reset(ctx context.Context)
	SelectMode(mode storyboard.Mode) error
	SetInput(text string) error
	Subscribe() (<-chan workflow.Update, func())
}

// GenerateRequest submits a story for analysis and generation.
type GenerateRequest struct {
	Story string `json:"story"`
	Mode  string `json:"mode"`
}

// ModeRequest selects the generation mode for the next submission.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// InputRequest saves the story draft without submitting it.
type InputRequest struct {
	Story string `json:"story"`
}

// AcceptedResponse acknowledges an intent that continues in the background.
type AcceptedResponse struct {
	StoryboardID string           `json:"storyboardId,omitempty"`
	SceneIndex   *int             `json:"sceneIndex,omitempty"`
	Phase        storyboard.Phase `json:"phase"`
}

// HealthResponse reports liveness plus a session summary.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Session workflow.StatusSummary `json:"session"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
