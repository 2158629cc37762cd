package workflow

import (
	"cineboard/internal/storyboard"
)

// StatusSummary is a lightweight view of the session for status surfaces.
type StatusSummary struct {
	Phase        storyboard.Phase               `json:"phase"`
	Mode         storyboard.Mode                `json:"mode"`
	StoryboardID string                         `json:"storyboardId,omitempty"`
	Title        string                         `json:"title,omitempty"`
	Scenes       int                            `json:"scenes"`
	Counts       map[storyboard.SceneStatus]int `json:"counts"`
	Error        string                         `json:"error,omitempty"`
	Sink         string                         `json:"sink"`
	Persistent   bool                           `json:"persistent"`
	Subscribers  int                            `json:"subscribers"`
}

// Status summarizes the current session.
func (o *Orchestrator) Status() StatusSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	summary := StatusSummary{
		Phase:        o.state.Phase,
		Mode:         o.state.Mode,
		StoryboardID: o.state.StoryboardID,
		Counts:       o.state.Storyboard.Counts(),
		Error:        o.state.Error,
		Sink:         o.sink.Name(),
		Persistent:   o.store != nil,
		Subscribers:  len(o.subs),
	}
	if o.state.Storyboard != nil {
		summary.Title = o.state.Storyboard.Title
		summary.Scenes = len(o.state.Storyboard.Scenes)
	}
	return summary
}
