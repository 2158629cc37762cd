package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cineboard/internal/config"
	"cineboard/internal/media"
	"cineboard/internal/textutil"
)

// FileSink writes assets under a local directory, one subdirectory per storyboard.
type FileSink struct {
	dir string
}

// NewFileSink stores assets below dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Name() string { return config.StorageFile }

// Store implements Sink. Each attempt gets its own file so a retry never
// overwrites the asset a viewer may still be showing.
func (s *FileSink) Store(_ context.Context, ref Ref, asset media.Asset) (string, error) {
	if len(asset.Data) == 0 {
		return "", fmt.Errorf("assets: empty payload for scene %d", ref.Index)
	}
	dir := filepath.Join(s.dir, storyboardDir(ref.StoryboardID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("assets: create directory: %w", err)
	}
	path := filepath.Join(dir, objectName(ref, asset.MIMEType))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, asset.Data, 0o644); err != nil {
		return "", fmt.Errorf("assets: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("assets: finalize %s: %w", path, err)
	}
	return path, nil
}

// Purge implements Sink.
func (s *FileSink) Purge(_ context.Context, storyboardID string) error {
	if strings.TrimSpace(storyboardID) == "" {
		return nil
	}
	if err := os.RemoveAll(filepath.Join(s.dir, storyboardDir(storyboardID))); err != nil {
		return fmt.Errorf("assets: purge %s: %w", storyboardID, err)
	}
	return nil
}

// storyboardDir keeps the id's case so distinct ids never share a directory;
// only names that would escape the asset root fall back to a slug.
func storyboardDir(id string) string {
	name := textutil.SanitizeFileName(id)
	switch name {
	case "", ".", "..":
		return textutil.Slug(id, 64)
	}
	return name
}

// objectName is shared by the file and MinIO sinks: 03-the-platform-a2.png.
func objectName(ref Ref, mimeType string) string {
	attempt := ref.Attempt
	if attempt <= 0 {
		attempt = 1
	}
	return fmt.Sprintf("%02d-%s-a%d%s", ref.Index, textutil.Slug(ref.Title, 40), attempt, extensionFor(mimeType))
}
