package analyzer

import (
	"context"
	"log/slog"

	"cineboard/internal/logging"
	"cineboard/internal/services"
	"cineboard/internal/services/gemini"
	"cineboard/internal/services/llm"
	"cineboard/internal/storyboard"
)

// GeminiAnalyzer asks a Gemini model for a schema-constrained breakdown.
type GeminiAnalyzer struct {
	client       *gemini.Client
	model        string
	sceneSeconds int
	logger       *slog.Logger
}

// NewGemini constructs a Gemini-backed analyzer.
func NewGemini(client *gemini.Client, model string, sceneSeconds int, logger *slog.Logger) *GeminiAnalyzer {
	return &GeminiAnalyzer{
		client:       client,
		model:        model,
		sceneSeconds: sceneSeconds,
		logger:       logging.NewComponentLogger(logger, "analyzer"),
	}
}

// Analyze implements Analyzer.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, text string, mode storyboard.Mode) (storyboard.Draft, error) {
	var draft storyboard.Draft
	if a.client == nil {
		return draft, services.Wrap(services.ErrConfiguration, stageName, "gemini", "gemini client unavailable", nil)
	}
	system := gemini.Content{Parts: []gemini.Part{{Text: SystemPrompt(a.sceneSeconds)}}}
	request := gemini.GenerateRequest{
		SystemInstruction: &system,
		Contents:          []gemini.Content{gemini.UserText(UserContent(text))},
		GenerationConfig: &gemini.GenerationConfig{
			ResponseMIMEType:   "application/json",
			ResponseJSONSchema: Schema(),
		},
	}

	logging.WithContext(ctx, a.logger).Debug("requesting story analysis",
		logging.String("model", a.model),
		logging.String("mode", string(mode)),
		logging.Int("story_chars", len(text)),
	)

	response, err := a.client.GenerateContent(ctx, a.model, request)
	if err != nil {
		return draft, services.Wrap(services.ErrExternalTool, stageName, "gemini", "generateContent failed", err)
	}
	content := response.Text()
	draft, err = llm.DecodeJSON[storyboard.Draft](content)
	if err != nil {
		return draft, services.Wrap(services.ErrValidation, stageName, "decode", "response was not valid JSON", err)
	}
	if err := Validate(draft); err != nil {
		return draft, err
	}
	return draft, nil
}
