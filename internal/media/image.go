package media

import (
	"context"
	"encoding/base64"
	"strings"

	"cineboard/internal/services"
	"cineboard/internal/services/gemini"
	"cineboard/internal/storyboard"
)

// ImageGenerator produces one still frame per prompt with a Gemini image model.
type ImageGenerator struct {
	client      *gemini.Client
	model       string
	aspectRatio string
}

// NewImageGenerator constructs the image strategy.
func NewImageGenerator(client *gemini.Client, model, aspectRatio string) *ImageGenerator {
	return &ImageGenerator{client: client, model: model, aspectRatio: aspectRatio}
}

func (g *ImageGenerator) Mode() storyboard.Mode { return storyboard.ModeImage }

// Generate implements Generator.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string) (Asset, error) {
	if g.client == nil {
		return Asset{}, services.Wrap(services.ErrConfiguration, stageName, "image", "gemini client unavailable", nil)
	}
	request := gemini.GenerateRequest{
		Contents: []gemini.Content{gemini.UserText(ImagePrompt(prompt))},
		GenerationConfig: &gemini.GenerationConfig{
			ImageConfig: &gemini.ImageConfig{AspectRatio: g.aspectRatio},
		},
	}
	response, err := g.client.GenerateContent(ctx, g.model, request)
	if err != nil {
		return Asset{}, services.Wrap(services.ErrExternalTool, stageName, "image", "generateContent failed", err)
	}
	inline, ok := response.FirstInlineData()
	if !ok {
		return Asset{}, services.Wrap(services.ErrValidation, stageName, "image", "no image generated", nil)
	}
	data, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return Asset{}, services.Wrap(services.ErrValidation, stageName, "image", "image data was not base64", err)
	}
	mimeType := strings.TrimSpace(inline.MIMEType)
	if mimeType == "" {
		mimeType = "image/png"
	}
	return Asset{Data: data, MIMEType: mimeType}, nil
}
