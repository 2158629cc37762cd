package session

import (
	"cineboard/internal/storyboard"
)

// State is the complete application session. Exactly one storyboard is live at
// a time.
type State struct {
	Input        string                 `json:"input"`
	Mode         storyboard.Mode        `json:"mode"`
	Phase        storyboard.Phase       `json:"phase"`
	StoryboardID string                 `json:"storyboardId,omitempty"`
	Storyboard   *storyboard.Storyboard `json:"storyboard,omitempty"`
	Error        string                 `json:"error,omitempty"`

	// SceneSeconds is the screen time of one scene used for timecodes.
	SceneSeconds int `json:"-"`
}

// NewState returns the initial idle session.
func NewState(mode storyboard.Mode, sceneSeconds int) State {
	if !mode.Valid() {
		mode = storyboard.ModeImage
	}
	if sceneSeconds <= 0 {
		sceneSeconds = storyboard.SceneSeconds
	}
	return State{
		Mode:         mode,
		Phase:        storyboard.PhaseIdle,
		SceneSeconds: sceneSeconds,
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	s.Storyboard = s.Storyboard.Clone()
	return s
}

// Scene returns a copy of the scene at index.
func (s State) Scene(index int) (storyboard.Scene, bool) {
	if !s.Storyboard.InRange(index) {
		return storyboard.Scene{}, false
	}
	return s.Storyboard.Scenes[index], true
}
