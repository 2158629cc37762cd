package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cineboard/internal/analyzer"
	"cineboard/internal/assets"
	"cineboard/internal/config"
	"cineboard/internal/media"
	"cineboard/internal/services/gemini"
	"cineboard/internal/services/llm"
)

// keyPrompt describes where the video key selection may ask for a key.
type keyPrompt struct {
	interactive bool
	in          io.Reader
	out         io.Writer
}

type dependencies struct {
	analyzer analyzer.Analyzer
	factory  media.Factory
	sink     assets.Sink
}

func buildDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, keys keyPrompt) (dependencies, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return dependencies{}, err
	}

	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return dependencies{}, err
	}

	an, err := newAnalyzer(cfg, client, logger)
	if err != nil {
		return dependencies{}, err
	}

	sink, err := assets.New(ctx, cfg)
	if err != nil {
		return dependencies{}, fmt.Errorf("asset storage: %w", err)
	}

	factory := media.Factory{
		Image: media.NewImageGenerator(client, cfg.Gemini.ImageModel, cfg.Media.AspectRatio),
		Video: media.NewVideoGenerator(client, media.VideoOptions{
			Model:        cfg.Gemini.VideoModel,
			AspectRatio:  cfg.Media.AspectRatio,
			Resolution:   cfg.Media.VideoResolution,
			SceneSeconds: cfg.Media.SceneSeconds,
			Poller: media.Poller{
				Interval:    seconds(cfg.Media.PollInterval),
				Timeout:     seconds(cfg.Media.PollTimeout),
				Backoff:     cfg.Media.PollBackoff,
				MaxInterval: seconds(cfg.Media.PollMaxInterval),
			},
			Keys:   media.NewKeyGate(keySelector(cfg, keys)),
			Logger: logger,
		}),
	}

	return dependencies{analyzer: an, factory: factory, sink: sink}, nil
}

func newGeminiClient(ctx context.Context, cfg *config.Config) (*gemini.Client, error) {
	gcfg := gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	}
	if cfg.Gemini.Auth == config.AuthADC {
		client, err := gemini.NewADCClient(ctx, gcfg)
		if err != nil {
			return nil, fmt.Errorf("gemini application default credentials: %w", err)
		}
		return client, nil
	}
	return gemini.NewClient(gcfg), nil
}

func newAnalyzer(cfg *config.Config, client *gemini.Client, logger *slog.Logger) (analyzer.Analyzer, error) {
	switch cfg.Analyzer.Provider {
	case config.ProviderGemini, "":
		return analyzer.NewGemini(client, cfg.Gemini.AnalysisModel, cfg.Media.SceneSeconds, logger), nil
	case config.ProviderLLM:
		settings := cfg.GetLLM()
		llmClient := llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
		})
		return analyzer.NewLLM(llmClient, cfg.Media.SceneSeconds, logger), nil
	default:
		return nil, fmt.Errorf("unsupported analyzer provider %q", cfg.Analyzer.Provider)
	}
}

// keySelector prompts on the terminal when allowed, otherwise it only serves
// the configured key.
func keySelector(cfg *config.Config, keys keyPrompt) media.KeySelector {
	if keys.interactive {
		if file, ok := keys.in.(*os.File); ok {
			return media.NewPromptKeys(cfg.VideoKey(), file, keys.out)
		}
	}
	return media.StaticKeys{Key: cfg.VideoKey()}
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}
