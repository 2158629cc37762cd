package session

import "cineboard/internal/storyboard"

// Command is an external call the orchestrator must issue.
type Command interface {
	commandName() string
}

// AnalyzeStory asks the story analyzer for a scene breakdown.
type AnalyzeStory struct {
	StoryboardID string
	Text         string
	Mode         storyboard.Mode
}

// GenerateScene asks the media generator for one scene. Prompt and Mode are
// captured from the state at the moment the scene entered generating.
type GenerateScene struct {
	StoryboardID string
	Index        int
	Attempt      int
	Prompt       string
	Mode         storyboard.Mode
	Sweep        bool
}

// CancelStoryboard aborts in-flight work for a discarded storyboard.
type CancelStoryboard struct {
	StoryboardID string
}

func (AnalyzeStory) commandName() string     { return "analyze_story" }
func (GenerateScene) commandName() string    { return "generate_scene" }
func (CancelStoryboard) commandName() string { return "cancel_storyboard" }

// CommandName returns a stable identifier for logging.
func CommandName(cmd Command) string {
	if cmd == nil {
		return "<nil>"
	}
	return cmd.commandName()
}
