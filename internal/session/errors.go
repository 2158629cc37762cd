package session

import "errors"

// AnalysisFailedMessage is the single user-facing message shown when the story
// analyzer fails for any reason.
const AnalysisFailedMessage = "Failed to analyze the story. Please try again."

var (
	// ErrBlankStory rejects a submission whose text is empty or whitespace.
	ErrBlankStory = errors.New("story text is empty")
	// ErrBusy rejects intents that require the pipeline to be idle.
	ErrBusy = errors.New("generation already in progress")
	// ErrNoStoryboard rejects scene operations when no storyboard is live.
	ErrNoStoryboard = errors.New("no storyboard")
	// ErrSceneOutOfRange rejects scene operations on an unknown index.
	ErrSceneOutOfRange = errors.New("scene index out of range")
	// ErrSceneBusy rejects a retry of a scene the sweep has not reached yet.
	ErrSceneBusy = errors.New("scene has not started generating")
	// ErrInvalidMode rejects unknown generation modes.
	ErrInvalidMode = errors.New("invalid generation mode")
	// ErrStaleEvent marks a collaborator result that no longer applies.
	ErrStaleEvent = errors.New("stale event")
	// ErrIllegalTransition marks a scene or phase change outside the lifecycle.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrUnknownEvent marks an event type the reducer does not handle.
	ErrUnknownEvent = errors.New("unknown event")
)
