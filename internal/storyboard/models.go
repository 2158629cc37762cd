package storyboard

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the kind of media generated for every scene of a storyboard.
type Mode string

const (
	ModeImage Mode = "image"
	ModeVideo Mode = "video"
)

// ParseMode normalizes user input into a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ModeImage):
		return ModeImage, nil
	case string(ModeVideo):
		return ModeVideo, nil
	default:
		return "", fmt.Errorf("unknown generation mode %q (want image or video)", value)
	}
}

// Valid reports whether the mode is one of the supported values.
func (m Mode) Valid() bool {
	return m == ModeImage || m == ModeVideo
}

// Phase is the session-level pipeline state.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAnalyzing     Phase = "analyzing"
	PhaseStoryboarding Phase = "storyboarding"
	PhaseViewing       Phase = "viewing"
)

// Busy reports whether the automatic pipeline is in flight.
func (p Phase) Busy() bool {
	return p == PhaseAnalyzing || p == PhaseStoryboarding
}

// SceneStatus tracks a scene through media generation.
type SceneStatus string

const (
	StatusPending    SceneStatus = "pending"
	StatusGenerating SceneStatus = "generating"
	StatusCompleted  SceneStatus = "completed"
	StatusFailed     SceneStatus = "failed"
)

// Terminal reports whether the status is a resolved outcome.
func (s SceneStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DefaultTitle is used when the analyzer does not name the project.
const DefaultTitle = "Untitled Project"

// Scene is one fixed-length narrative unit of a storyboard.
type Scene struct {
	ID           string      `json:"id" yaml:"id"`
	Index        int         `json:"index" yaml:"index"`
	Timecode     string      `json:"timecode" yaml:"timecode"`
	Title        string      `json:"title" yaml:"title"`
	Action       string      `json:"action" yaml:"action"`
	Dialogue     string      `json:"dialogue,omitempty" yaml:"dialogue,omitempty"`
	VisualPrompt string      `json:"visualPrompt" yaml:"visual_prompt"`
	MediaURL     string      `json:"mediaUrl,omitempty" yaml:"media_url,omitempty"`
	MediaType    Mode        `json:"mediaType" yaml:"media_type"`
	Status       SceneStatus `json:"status" yaml:"status"`
	Attempts     int         `json:"attempts" yaml:"attempts"`
	Error        string      `json:"error,omitempty" yaml:"error,omitempty"`
	UpdatedAt    time.Time   `json:"updatedAt" yaml:"updated_at"`
}

// Storyboard is a titled, ordered sequence of scenes sharing one media type.
type Storyboard struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Mode      Mode      `json:"mode" yaml:"mode"`
	Scenes    []Scene   `json:"scenes" yaml:"scenes"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// SceneDraft is the analyzer's description of one scene before it enters the
// generation lifecycle.
type SceneDraft struct {
	Title        string `json:"title" jsonschema:"description=Short title for the scene"`
	Action       string `json:"action" jsonschema:"description=Detailed description of the action"`
	Dialogue     string `json:"dialogue,omitempty" jsonschema:"description=Dialogue or sound effects"`
	VisualPrompt string `json:"visualPrompt" jsonschema:"description=Highly detailed prompt for an image or video model covering camera angle and lighting and visual elements"`
}

// Draft is the analyzer output for a whole story.
type Draft struct {
	Title  string       `json:"title" jsonschema:"description=Title for the project"`
	Scenes []SceneDraft `json:"scenes"`
}

// SceneID returns the stable identifier for the scene at index.
func SceneID(index int) string {
	return fmt.Sprintf("scene-%d", index)
}

// New builds a storyboard from an analyzer draft. Every scene starts pending
// and inherits the storyboard mode.
func New(id string, draft Draft, mode Mode, sceneSeconds int, now time.Time) Storyboard {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		title = DefaultTitle
	}
	scenes := make([]Scene, len(draft.Scenes))
	for i, d := range draft.Scenes {
		scenes[i] = Scene{
			ID:           SceneID(i),
			Index:        i,
			Timecode:     TimecodeFor(i, sceneSeconds),
			Title:        strings.TrimSpace(d.Title),
			Action:       strings.TrimSpace(d.Action),
			Dialogue:     strings.TrimSpace(d.Dialogue),
			VisualPrompt: strings.TrimSpace(d.VisualPrompt),
			MediaType:    mode,
			Status:       StatusPending,
			UpdatedAt:    now,
		}
	}
	return Storyboard{
		ID:        id,
		Title:     title,
		Mode:      mode,
		Scenes:    scenes,
		CreatedAt: now,
	}
}

// Clone returns a deep copy of the storyboard.
func (b *Storyboard) Clone() *Storyboard {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Scenes = make([]Scene, len(b.Scenes))
	copy(clone.Scenes, b.Scenes)
	return &clone
}

// Counts tallies scenes by status.
func (b *Storyboard) Counts() map[SceneStatus]int {
	counts := make(map[SceneStatus]int, 4)
	if b == nil {
		return counts
	}
	for _, scene := range b.Scenes {
		counts[scene.Status]++
	}
	return counts
}

// InRange reports whether index addresses a scene.
func (b *Storyboard) InRange(index int) bool {
	return b != nil && index >= 0 && index < len(b.Scenes)
}
