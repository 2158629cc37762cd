package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"cineboard/internal/services"
	"cineboard/internal/storyboard"
)

const stageName = "analyze"

// Analyzer turns free-form story text into a titled scene breakdown.
type Analyzer interface {
	Analyze(ctx context.Context, text string, mode storyboard.Mode) (storyboard.Draft, error)
}

// Func adapts a function to the Analyzer interface.
type Func func(ctx context.Context, text string, mode storyboard.Mode) (storyboard.Draft, error)

// Analyze calls f.
func (f Func) Analyze(ctx context.Context, text string, mode storyboard.Mode) (storyboard.Draft, error) {
	return f(ctx, text, mode)
}

// SystemPrompt returns the cinematographer instruction for scenes of the given length.
func SystemPrompt(sceneSeconds int) string {
	if sceneSeconds <= 0 {
		sceneSeconds = storyboard.SceneSeconds
	}
	return fmt.Sprintf(`You are a world-class Cinematographer and Storyboard Artist.
Analyze the provided story and break it down into professional storyboard scenes.

Constraint: Each scene represents exactly %d seconds of screen time.
Provide a title for the project.
For each scene, provide:
1. A short title for the scene.
2. A detailed description of the action.
3. Any dialogue or sound effects.
4. A HIGHLY DETAILED visual prompt for an image/video generation model.
   The visual prompt should describe camera angle (e.g., low angle, medium shot), lighting (e.g., moody, golden hour), and specific visual elements.

Respond with JSON only.`, sceneSeconds)
}

// UserContent formats the story for the model.
func UserContent(text string) string {
	return "Story: " + strings.TrimSpace(text)
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
)

// Schema returns the JSON Schema of storyboard.Draft, inlined without $ref so
// both Gemini and OpenAI-compatible structured output accept it.
func Schema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
			ExpandedStruct:            true,
		}
		schema = reflector.Reflect(&storyboard.Draft{})
		schema.Version = ""
		schema.ID = ""
	})
	return schema
}

// Validate enforces the breakdown contract: at least one scene, and every
// scene has a title, an action and a visual prompt. A blank project title is
// allowed; the storyboard falls back to storyboard.DefaultTitle.
func Validate(draft storyboard.Draft) error {
	if len(draft.Scenes) == 0 {
		return services.Wrap(services.ErrValidation, stageName, "validate", "analysis returned no scenes", nil)
	}
	for i, scene := range draft.Scenes {
		var missing []string
		if strings.TrimSpace(scene.Title) == "" {
			missing = append(missing, "title")
		}
		if strings.TrimSpace(scene.Action) == "" {
			missing = append(missing, "action")
		}
		if strings.TrimSpace(scene.VisualPrompt) == "" {
			missing = append(missing, "visualPrompt")
		}
		if len(missing) > 0 {
			return services.Wrap(
				services.ErrValidation,
				stageName,
				"validate",
				fmt.Sprintf("scene %d missing %s", i, strings.Join(missing, ", ")),
				nil,
			)
		}
	}
	return nil
}
