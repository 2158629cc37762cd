package analyzer

import (
	"context"
	"log/slog"

	"cineboard/internal/logging"
	"cineboard/internal/services"
	"cineboard/internal/services/llm"
	"cineboard/internal/storyboard"
)

// LLMAnalyzer asks an OpenAI-compatible chat model for the breakdown.
type LLMAnalyzer struct {
	client       *llm.Client
	sceneSeconds int
	logger       *slog.Logger
}

// NewLLM constructs an analyzer backed by an OpenAI-compatible API.
func NewLLM(client *llm.Client, sceneSeconds int, logger *slog.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		client:       client,
		sceneSeconds: sceneSeconds,
		logger:       logging.NewComponentLogger(logger, "analyzer"),
	}
}

// Analyze implements Analyzer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string, mode storyboard.Mode) (storyboard.Draft, error) {
	var draft storyboard.Draft
	if a.client == nil {
		return draft, services.Wrap(services.ErrConfiguration, stageName, "llm", "llm client unavailable", nil)
	}
	logging.WithContext(ctx, a.logger).Debug("requesting story analysis",
		logging.String("model", a.client.Model()),
		logging.String("mode", string(mode)),
	)
	content, err := a.client.CompleteJSONSchema(ctx, SystemPrompt(a.sceneSeconds), UserContent(text), "storyboard", Schema())
	if err != nil {
		return draft, services.Wrap(services.ErrExternalTool, stageName, "llm", "chat completion failed", err)
	}
	draft, err = llm.DecodeJSON[storyboard.Draft](content)
	if err != nil {
		logging.WithContext(ctx, a.logger).Debug("undecodable analysis payload",
			logging.String("snippet", llm.SummarizeSnippet(content)))
		return draft, services.Wrap(services.ErrValidation, stageName, "decode", "response was not valid JSON", err)
	}
	if err := Validate(draft); err != nil {
		return draft, err
	}
	return draft, nil
}
