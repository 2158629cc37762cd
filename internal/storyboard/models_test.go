package storyboard

import (
	"strings"
	"testing"
	"time"
)

func TestTimecode(t *testing.T) {
	cases := map[int]string{
		0:  "00:00",
		1:  "00:10",
		5:  "00:50",
		6:  "01:00",
		7:  "01:10",
		59: "09:50",
		60: "10:00",
	}
	for index, want := range cases {
		if got := Timecode(index); got != want {
			t.Fatalf("Timecode(%d) = %q, want %q", index, got, want)
		}
	}
}

func TestTimecodeForCustomLength(t *testing.T) {
	if got := TimecodeFor(3, 25); got != "01:15" {
		t.Fatalf("unexpected timecode %q", got)
	}
	if got := TimecodeFor(2, 0); got != "00:20" {
		t.Fatalf("expected default scene length fallback, got %q", got)
	}
}

func TestNewAssignsModeAndDefaults(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	draft := Draft{
		Scenes: []SceneDraft{
			{Title: " Opening ", Action: "Rain falls", VisualPrompt: "Wide shot"},
			{Title: "Chase", Action: "Running", Dialogue: "Stop!", VisualPrompt: "Handheld"},
		},
	}
	board := New("sb-1", draft, ModeVideo, SceneSeconds, now)
	if board.Title != DefaultTitle {
		t.Fatalf("expected default title, got %q", board.Title)
	}
	if len(board.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(board.Scenes))
	}
	for i, scene := range board.Scenes {
		if scene.ID != SceneID(i) {
			t.Fatalf("scene %d id = %q", i, scene.ID)
		}
		if scene.MediaType != ModeVideo {
			t.Fatalf("scene %d media type = %q", i, scene.MediaType)
		}
		if scene.Status != StatusPending {
			t.Fatalf("scene %d status = %q", i, scene.Status)
		}
		if scene.MediaURL != "" {
			t.Fatalf("scene %d should not have media", i)
		}
	}
	if board.Scenes[0].Title != "Opening" {
		t.Fatalf("expected trimmed title, got %q", board.Scenes[0].Title)
	}
	if board.Scenes[1].Timecode != "00:10" {
		t.Fatalf("unexpected timecode %q", board.Scenes[1].Timecode)
	}
}

func TestCloneIsDeep(t *testing.T) {
	board := New("sb", Draft{Title: "T", Scenes: []SceneDraft{{Title: "a", Action: "b", VisualPrompt: "c"}}}, ModeImage, 10, time.Now())
	clone := board.Clone()
	clone.Scenes[0].Status = StatusFailed
	if board.Scenes[0].Status != StatusPending {
		t.Fatal("clone shares scene storage with original")
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]SceneStatus{
		{StatusPending, StatusGenerating},
		{StatusGenerating, StatusCompleted},
		{StatusGenerating, StatusFailed},
		{StatusGenerating, StatusGenerating},
		{StatusFailed, StatusGenerating},
		{StatusCompleted, StatusGenerating},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]SceneStatus{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusFailed},
		{StatusCompleted, StatusFailed},
		{StatusFailed, StatusCompleted},
		{StatusGenerating, StatusPending},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

func TestParseMode(t *testing.T) {
	if mode, err := ParseMode(" Video "); err != nil || mode != ModeVideo {
		t.Fatalf("ParseMode video = %q, %v", mode, err)
	}
	if mode, err := ParseMode(""); err != nil || mode != ModeImage {
		t.Fatalf("ParseMode default = %q, %v", mode, err)
	}
	if _, err := ParseMode("audio"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestEncodeFormats(t *testing.T) {
	board := New("sb-9", Draft{Title: "Heist", Scenes: []SceneDraft{{Title: "Vault", Action: "Drill", VisualPrompt: "Close-up"}}}, ModeImage, SceneSeconds, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	var js strings.Builder
	if err := Encode(&js, board, "json"); err != nil {
		t.Fatalf("Encode json: %v", err)
	}
	if !strings.Contains(js.String(), `"visualPrompt": "Close-up"`) {
		t.Fatalf("unexpected json: %s", js.String())
	}

	var ym strings.Builder
	if err := Encode(&ym, board, "YAML"); err != nil {
		t.Fatalf("Encode yaml: %v", err)
	}
	if !strings.Contains(ym.String(), "visual_prompt: Close-up") || !strings.Contains(ym.String(), "title: Heist") {
		t.Fatalf("unexpected yaml: %s", ym.String())
	}

	if err := Encode(&js, board, "xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
