package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cineboard/internal/logging"
	"cineboard/internal/services"
	"cineboard/internal/services/gemini"
	"cineboard/internal/storyboard"
)

// VideoOptions configures the video strategy.
type VideoOptions struct {
	Model        string
	AspectRatio  string
	Resolution   string
	SceneSeconds int
	Poller       Poller
	Keys         *KeyGate
	Logger       *slog.Logger
}

// VideoGenerator submits a long-running video job, polls it to completion and
// downloads the resulting clip.
type VideoGenerator struct {
	client *gemini.Client
	opts   VideoOptions
	logger *slog.Logger
}

// NewVideoGenerator constructs the video strategy.
func NewVideoGenerator(client *gemini.Client, opts VideoOptions) *VideoGenerator {
	return &VideoGenerator{
		client: client,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "video"),
	}
}

func (g *VideoGenerator) Mode() storyboard.Mode { return storyboard.ModeVideo }

// Generate implements Generator.
func (g *VideoGenerator) Generate(ctx context.Context, prompt string) (Asset, error) {
	client, err := g.authorizedClient(ctx)
	if err != nil {
		return Asset{}, err
	}
	logger := logging.WithContext(ctx, g.logger)

	op, err := client.SubmitVideo(ctx, g.opts.Model, gemini.VideoRequest{
		Prompt:      VideoPrompt(prompt, g.opts.SceneSeconds),
		AspectRatio: g.opts.AspectRatio,
		Resolution:  g.opts.Resolution,
		SampleCount: 1,
	})
	if err != nil {
		return Asset{}, services.Wrap(services.ErrExternalTool, stageName, "video submit", "predictLongRunning failed", err)
	}
	logger.Info("video job submitted", logging.String("operation", op.Name))

	if !op.Done {
		polls := 0
		err = g.opts.Poller.Wait(ctx, func(ctx context.Context) (bool, error) {
			polls++
			next, err := client.GetOperation(ctx, op.Name)
			if err != nil {
				return false, err
			}
			op = next
			return op.Done, nil
		})
		if err != nil {
			return Asset{}, services.Wrap(markerFor(err), stageName, "video poll", fmt.Sprintf("operation %s did not finish", op.Name), err)
		}
		logger.Debug("video job finished", logging.String("operation", op.Name), logging.Int("polls", polls))
	}

	if op.Error != nil {
		return Asset{}, services.Wrap(services.ErrExternalTool, stageName, "video", fmt.Sprintf("operation failed (code %d): %s", op.Error.Code, op.Error.Message), nil)
	}
	uri := op.VideoURI()
	if uri == "" {
		return Asset{}, services.Wrap(services.ErrValidation, stageName, "video", "video generation failed: no URI returned", nil)
	}

	data, contentType, err := client.Download(ctx, uri)
	if err != nil {
		return Asset{}, services.Wrap(services.ErrExternalTool, stageName, "video download", "fetching generated video failed", err)
	}
	mimeType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "video/mp4"
	}
	return Asset{Data: data, MIMEType: mimeType}, nil
}

// authorizedClient enforces key selection before any video call.
func (g *VideoGenerator) authorizedClient(ctx context.Context) (*gemini.Client, error) {
	if g.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "video", "gemini client unavailable", nil)
	}
	client := g.client
	if g.opts.Keys != nil {
		key, err := g.opts.Keys.Ensure(ctx)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, stageName, "video key", "key selection failed", err)
		}
		if key != "" {
			client = client.WithKey(key)
		}
	}
	if !client.HasCredentials() {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "video key", "no API key selected for video generation", nil)
	}
	return client, nil
}

func markerFor(err error) error {
	switch services.Kind(err) {
	case "timeout":
		return services.ErrTimeout
	default:
		return services.ErrExternalTool
	}
}
