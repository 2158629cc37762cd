package media

import (
	"context"
	"fmt"
	"strings"

	"cineboard/internal/storyboard"
)

const stageName = "media"

// Asset is generated media held in memory until an asset sink stores it.
type Asset struct {
	Data     []byte
	MIMEType string
}

// Generator turns one visual prompt into one asset. Implementations must be
// safe for concurrent use; a retry may run alongside the sweep.
type Generator interface {
	Mode() storyboard.Mode
	Generate(ctx context.Context, prompt string) (Asset, error)
}

// ImagePrompt wraps a scene prompt for still-frame generation.
func ImagePrompt(prompt string) string {
	return fmt.Sprintf("Cinematic storyboard frame: %s. High quality, detailed lighting.", strings.TrimSpace(prompt))
}

// VideoPrompt wraps a scene prompt for clip generation.
func VideoPrompt(prompt string, sceneSeconds int) string {
	if sceneSeconds <= 0 {
		sceneSeconds = storyboard.SceneSeconds
	}
	return fmt.Sprintf("Cinematic storyboard sequence (%d seconds): %s", sceneSeconds, strings.TrimSpace(prompt))
}

// Factory selects the generation strategy for a storyboard mode.
type Factory struct {
	Image Generator
	Video Generator
}

// ForMode returns the strategy for mode. The orchestrator resolves it once
// per storyboard.
func (f Factory) ForMode(mode storyboard.Mode) (Generator, error) {
	switch mode {
	case storyboard.ModeImage:
		if f.Image == nil {
			return nil, fmt.Errorf("media: no image generator configured")
		}
		return f.Image, nil
	case storyboard.ModeVideo:
		if f.Video == nil {
			return nil, fmt.Errorf("media: no video generator configured")
		}
		return f.Video, nil
	default:
		return nil, fmt.Errorf("media: unsupported mode %q", mode)
	}
}
