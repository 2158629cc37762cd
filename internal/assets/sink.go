package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"cineboard/internal/config"
	"cineboard/internal/media"
)

// Ref identifies which scene an asset belongs to.
type Ref struct {
	StoryboardID string
	Index        int
	Attempt      int
	Title        string
}

// Sink turns generated bytes into a reference the presentation layer can display.
type Sink interface {
	Name() string
	Store(ctx context.Context, ref Ref, asset media.Asset) (string, error)
	// Purge drops everything stored for a storyboard.
	Purge(ctx context.Context, storyboardID string) error
}

// New builds the sink selected by storage.backend.
func New(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.Storage.Backend {
	case config.StorageInline, "":
		return InlineSink{}, nil
	case config.StorageFile:
		return NewFileSink(cfg.Paths.AssetDir), nil
	case config.StorageMinIO:
		return NewMinIOSink(ctx, cfg.Storage)
	default:
		return nil, fmt.Errorf("assets: unsupported storage backend %q", cfg.Storage.Backend)
	}
}

// InlineSink encodes assets as data URIs, the way the browser displays them.
type InlineSink struct{}

func (InlineSink) Name() string { return config.StorageInline }

// Store implements Sink.
func (InlineSink) Store(_ context.Context, _ Ref, asset media.Asset) (string, error) {
	if len(asset.Data) == 0 {
		return "", fmt.Errorf("assets: empty %s payload", mimeOrDefault(asset.MIMEType))
	}
	return DataURI(asset), nil
}

// Purge is a no-op; inline assets live in the session state.
func (InlineSink) Purge(context.Context, string) error { return nil }

// DataURI renders asset as data:<mime>;base64,<payload>.
func DataURI(asset media.Asset) string {
	return "data:" + mimeOrDefault(asset.MIMEType) + ";base64," + base64.StdEncoding.EncodeToString(asset.Data)
}

func mimeOrDefault(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}
