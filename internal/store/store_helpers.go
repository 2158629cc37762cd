package store

import (
	"database/sql"
	"time"

	"cineboard/internal/storyboard"
)

func scanScene(scanner interface{ Scan(dest ...any) error }) (storyboard.Scene, error) {
	var (
		scene        storyboard.Scene
		dialogue     sql.NullString
		mediaURL     sql.NullString
		mediaType    string
		status       string
		errorMessage sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&scene.Index,
		&scene.ID,
		&scene.Timecode,
		&scene.Title,
		&scene.Action,
		&dialogue,
		&scene.VisualPrompt,
		&mediaURL,
		&mediaType,
		&status,
		&scene.Attempts,
		&errorMessage,
		&updatedRaw,
	); err != nil {
		return storyboard.Scene{}, err
	}
	scene.Dialogue = dialogue.String
	scene.MediaURL = mediaURL.String
	scene.MediaType = storyboard.Mode(mediaType)
	scene.Status = storyboard.SceneStatus(status)
	scene.Error = errorMessage.String
	scene.UpdatedAt = parseTimeString(updatedRaw)
	return scene, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(raw sql.NullString) time.Time {
	if !raw.Valid || raw.String == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw.String); err == nil {
			return ts
		}
	}
	return time.Time{}
}
