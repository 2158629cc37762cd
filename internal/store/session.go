package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cineboard/internal/session"
	"cineboard/internal/storyboard"
)

// ErrNotFound reports that the addressed row does not exist.
var ErrNotFound = errors.New("not found")

const sceneColumns = "idx, scene_id, timecode, title, action, dialogue, visual_prompt, media_url, media_type, status, attempts, error_message, updated_at"

// SaveSession writes the session row. The storyboard itself is persisted by
// SaveStoryboard and UpdateScene.
func (s *Store) SaveSession(ctx context.Context, state session.State) error {
	_, err := s.exec(ctx, "save session", `
		INSERT INTO session (id, input, mode, phase, storyboard_id, error_message, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			input = excluded.input,
			mode = excluded.mode,
			phase = excluded.phase,
			storyboard_id = excluded.storyboard_id,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at`,
		state.Input,
		string(state.Mode),
		string(state.Phase),
		nullableString(state.StoryboardID),
		nullableString(state.Error),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SaveStoryboard writes a storyboard and all of its scenes, replacing any rows
// previously stored under the same id.
func (s *Store) SaveStoryboard(ctx context.Context, board storyboard.Storyboard) error {
	ctx = ensureContext(ctx)
	err := s.withTx(ctx, func(tx txExecer) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO storyboards (id, title, mode, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title = excluded.title, mode = excluded.mode`,
			board.ID, board.Title, string(board.Mode), formatTime(board.CreatedAt),
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM scenes WHERE storyboard_id = ?", board.ID); err != nil {
			return err
		}
		for _, scene := range board.Scenes {
			if err := upsertScene(ctx, tx, board.ID, scene); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save storyboard %s: %w", board.ID, err)
	}
	return nil
}

// UpdateScene writes exactly one scene row keyed by (storyboard id, index).
func (s *Store) UpdateScene(ctx context.Context, storyboardID string, scene storyboard.Scene) error {
	res, err := s.exec(ctx, "update scene", `
		UPDATE scenes SET
			media_url = ?,
			status = ?,
			attempts = ?,
			error_message = ?,
			updated_at = ?
		WHERE storyboard_id = ? AND idx = ?`,
		nullableString(scene.MediaURL),
		string(scene.Status),
		scene.Attempts,
		nullableString(scene.Error),
		formatTime(scene.UpdatedAt),
		storyboardID,
		scene.Index,
	)
	if err != nil {
		return fmt.Errorf("update scene %d of %s: %w", scene.Index, storyboardID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update scene %d of %s: %w", scene.Index, storyboardID, ErrNotFound)
	}
	return nil
}

// DeleteStoryboard removes a storyboard and its scenes.
func (s *Store) DeleteStoryboard(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.exec(ctx, "delete storyboard", "DELETE FROM storyboards WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete storyboard %s: %w", id, err)
	}
	return nil
}

// Load returns the persisted session. The boolean is false when nothing has
// been saved yet.
func (s *Store) Load(ctx context.Context) (session.State, bool, error) {
	ctx = ensureContext(ctx)
	var (
		state        session.State
		mode, phase  string
		storyboardID sql.NullString
		errorMessage sql.NullString
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT input, mode, phase, storyboard_id, error_message FROM session WHERE id = 1")
	if err := row.Scan(&state.Input, &mode, &phase, &storyboardID, &errorMessage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.State{}, false, nil
		}
		return session.State{}, false, fmt.Errorf("load session: %w", err)
	}
	state.Mode = storyboard.Mode(mode)
	state.Phase = storyboard.Phase(phase)
	state.StoryboardID = storyboardID.String
	state.Error = errorMessage.String

	if state.StoryboardID != "" {
		board, err := s.GetStoryboard(ctx, state.StoryboardID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return session.State{}, false, err
		default:
			state.Storyboard = board
		}
	}
	return state, true, nil
}

// GetStoryboard loads one storyboard with its scenes in index order.
func (s *Store) GetStoryboard(ctx context.Context, id string) (*storyboard.Storyboard, error) {
	ctx = ensureContext(ctx)
	var (
		board      storyboard.Storyboard
		mode       string
		createdRaw sql.NullString
	)
	row := s.db.QueryRowContext(ctx, "SELECT id, title, mode, created_at FROM storyboards WHERE id = ?", id)
	if err := row.Scan(&board.ID, &board.Title, &mode, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("storyboard %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get storyboard %s: %w", id, err)
	}
	board.Mode = storyboard.Mode(mode)
	board.CreatedAt = parseTimeString(createdRaw)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sceneColumns+" FROM scenes WHERE storyboard_id = ? ORDER BY idx", id)
	if err != nil {
		return nil, fmt.Errorf("list scenes of %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		board.Scenes = append(board.Scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenes: %w", err)
	}
	if board.Scenes == nil {
		board.Scenes = []storyboard.Scene{}
	}
	return &board, nil
}

func upsertScene(ctx context.Context, tx txExecer, storyboardID string, scene storyboard.Scene) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO scenes (storyboard_id, `+sceneColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		storyboardID,
		scene.Index,
		scene.ID,
		scene.Timecode,
		scene.Title,
		scene.Action,
		nullableString(scene.Dialogue),
		scene.VisualPrompt,
		nullableString(scene.MediaURL),
		string(scene.MediaType),
		string(scene.Status),
		scene.Attempts,
		nullableString(scene.Error),
		formatTime(scene.UpdatedAt),
	)
	return err
}
