package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cineboard/internal/session"
	"cineboard/internal/store"
	"cineboard/internal/storyboard"
	"cineboard/internal/testsupport"
)

func sampleState(t *testing.T) session.State {
	t.Helper()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	board := storyboard.New("sb-1", testsupport.Draft("Night Drive", 3), storyboard.ModeVideo, storyboard.SceneSeconds, now)
	board.Scenes[0].Status = storyboard.StatusCompleted
	board.Scenes[0].MediaURL = "file:///tmp/a.mp4"
	board.Scenes[0].Attempts = 1
	board.Scenes[1].Status = storyboard.StatusGenerating
	board.Scenes[1].Attempts = 1
	board.Scenes[2].Dialogue = "Hello"

	state := session.NewState(storyboard.ModeVideo, storyboard.SceneSeconds)
	state.Input = "A car at night"
	state.Phase = storyboard.PhaseStoryboarding
	state.StoryboardID = board.ID
	state.Storyboard = &board
	return state
}

func saveAll(t *testing.T, st *store.Store, state session.State) {
	t.Helper()
	ctx := context.Background()
	if err := st.SaveStoryboard(ctx, *state.Storyboard); err != nil {
		t.Fatalf("SaveStoryboard: %v", err)
	}
	if err := st.SaveSession(ctx, state); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
}

func TestLoadEmptyDatabase(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	_, ok, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected no persisted session")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	state := sampleState(t)
	saveAll(t, st, state)

	loaded, ok, err := st.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if loaded.Input != state.Input || loaded.Mode != state.Mode || loaded.Phase != state.Phase {
		t.Fatalf("unexpected session fields: %+v", loaded)
	}
	if loaded.Storyboard == nil {
		t.Fatal("expected storyboard to be loaded")
	}
	if loaded.Storyboard.Title != "Night Drive" || len(loaded.Storyboard.Scenes) != 3 {
		t.Fatalf("unexpected storyboard: %+v", loaded.Storyboard)
	}
	for i, scene := range loaded.Storyboard.Scenes {
		want := state.Storyboard.Scenes[i]
		if scene.Index != i || scene.ID != want.ID || scene.Timecode != want.Timecode {
			t.Fatalf("scene %d identity mismatch: %+v", i, scene)
		}
		if scene.Status != want.Status || scene.MediaURL != want.MediaURL || scene.Attempts != want.Attempts {
			t.Fatalf("scene %d status mismatch: got %+v want %+v", i, scene, want)
		}
		if scene.MediaType != storyboard.ModeVideo {
			t.Fatalf("scene %d media type = %q", i, scene.MediaType)
		}
	}
	if loaded.Storyboard.Scenes[2].Dialogue != "Hello" {
		t.Fatalf("dialogue not preserved: %q", loaded.Storyboard.Scenes[2].Dialogue)
	}
	if !loaded.Storyboard.CreatedAt.Equal(state.Storyboard.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", loaded.Storyboard.CreatedAt, state.Storyboard.CreatedAt)
	}
}

func TestUpdateSceneTouchesOneRow(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	state := sampleState(t)
	saveAll(t, st, state)

	scene := state.Storyboard.Scenes[1]
	scene.Status = storyboard.StatusFailed
	scene.Error = "quota exceeded"
	if err := st.UpdateScene(context.Background(), "sb-1", scene); err != nil {
		t.Fatalf("UpdateScene: %v", err)
	}

	board, err := st.GetStoryboard(context.Background(), "sb-1")
	if err != nil {
		t.Fatalf("GetStoryboard: %v", err)
	}
	if board.Scenes[1].Status != storyboard.StatusFailed || board.Scenes[1].Error != "quota exceeded" {
		t.Fatalf("scene 1 not updated: %+v", board.Scenes[1])
	}
	if board.Scenes[0].Status != storyboard.StatusCompleted || board.Scenes[2].Status != storyboard.StatusPending {
		t.Fatalf("neighbouring scenes changed: %+v", board.Scenes)
	}
}

func TestUpdateSceneUnknownRow(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	err := st.UpdateScene(context.Background(), "missing", storyboard.Scene{Index: 0, Status: storyboard.StatusFailed})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteStoryboardCascadesScenes(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	state := sampleState(t)
	saveAll(t, st, state)
	ctx := context.Background()

	if err := st.DeleteStoryboard(ctx, "sb-1"); err != nil {
		t.Fatalf("DeleteStoryboard: %v", err)
	}
	if _, err := st.GetStoryboard(ctx, "sb-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.UpdateScene(ctx, "sb-1", state.Storyboard.Scenes[0]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected scenes to be removed, got %v", err)
	}

	idle := session.NewState(storyboard.ModeVideo, 10)
	if err := st.SaveSession(ctx, idle); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	loaded, ok, err := st.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if loaded.Storyboard != nil || loaded.Phase != storyboard.PhaseIdle || loaded.Input != "" {
		t.Fatalf("expected idle session, got %+v", loaded)
	}
}

func TestLoadedSessionReclaimsInterruptedWork(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	saveAll(t, st, sampleState(t))

	loaded, _, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reclaimed := session.Reclaim(loaded, time.Now())
	if reclaimed.Phase != storyboard.PhaseViewing {
		t.Fatalf("phase = %q, want viewing", reclaimed.Phase)
	}
	scenes := reclaimed.Storyboard.Scenes
	if scenes[0].Status != storyboard.StatusCompleted {
		t.Fatalf("completed scene changed: %+v", scenes[0])
	}
	for _, i := range []int{1, 2} {
		if scenes[i].Status != storyboard.StatusFailed || scenes[i].Error != session.InterruptedMessage {
			t.Fatalf("scene %d not reclaimed: %+v", i, scenes[i])
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	saveAll(t, st, sampleState(t))
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	if reopened.Path() != cfg.DatabasePath() {
		t.Fatalf("path = %q, want %q", reopened.Path(), cfg.DatabasePath())
	}
	loaded, ok, err := reopened.Load(context.Background())
	if err != nil || !ok || loaded.Storyboard == nil {
		t.Fatalf("expected persisted storyboard after reopen: ok=%v err=%v", ok, err)
	}
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cineboard.lock")
	first, err := store.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if _, err := store.AcquireLock(path); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := store.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	_ = second.Release()
	if err := second.Release(); err != nil {
		t.Fatalf("second Release should be a no-op: %v", err)
	}
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	st, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := raw.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = raw.Close()

	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
