package session

import (
	"time"

	"cineboard/internal/storyboard"
)

// Event is an input to Reduce.
type Event interface {
	eventName() string
}

// Submitted starts a new generation for the given story.
type Submitted struct {
	StoryboardID string
	Text         string
	Mode         storyboard.Mode
}

// AnalysisSucceeded delivers the analyzer breakdown for a storyboard.
type AnalysisSucceeded struct {
	StoryboardID string
	Draft        storyboard.Draft
	At           time.Time
}

// AnalysisFailed reports that the analyzer could not produce a breakdown.
// Interrupted marks an analysis cut short by cancellation rather than a
// failure of the analyzer.
type AnalysisFailed struct {
	StoryboardID string
	Err          error
	Interrupted  bool
}

// SceneSucceeded delivers the media reference for one scene attempt.
type SceneSucceeded struct {
	StoryboardID string
	Index        int
	Attempt      int
	MediaURL     string
	Sweep        bool
	At           time.Time
}

// SceneFailed reports a failed scene attempt. Interrupted marks an attempt
// cut short by cancellation.
type SceneFailed struct {
	StoryboardID string
	Index        int
	Attempt      int
	Err          error
	Interrupted  bool
	Sweep        bool
	At           time.Time
}

// RetryRequested asks for one scene to be generated again.
type RetryRequested struct {
	Index int
	At    time.Time
}

// ResetRequested discards the storyboard and returns to idle.
type ResetRequested struct{}

// ModeSelected changes the mode used by the next submission.
type ModeSelected struct {
	Mode storyboard.Mode
}

// InputChanged records the current story text.
type InputChanged struct {
	Text string
}

// Restored installs a previously persisted session.
type Restored struct {
	State State
	At    time.Time
}

func (Submitted) eventName() string         { return "submitted" }
func (AnalysisSucceeded) eventName() string { return "analysis_succeeded" }
func (AnalysisFailed) eventName() string    { return "analysis_failed" }
func (SceneSucceeded) eventName() string    { return "scene_succeeded" }
func (SceneFailed) eventName() string       { return "scene_failed" }
func (RetryRequested) eventName() string    { return "retry_requested" }
func (ResetRequested) eventName() string    { return "reset_requested" }
func (ModeSelected) eventName() string      { return "mode_selected" }
func (InputChanged) eventName() string      { return "input_changed" }
func (Restored) eventName() string          { return "restored" }

// EventName returns a stable identifier for logging.
func EventName(ev Event) string {
	if ev == nil {
		return "<nil>"
	}
	return ev.eventName()
}
