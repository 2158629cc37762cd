package session

import (
	"errors"
	"testing"
	"time"

	"cineboard/internal/storyboard"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustReduce(t *testing.T, s State, ev Event) (State, []Command) {
	t.Helper()
	next, cmds, err := Reduce(s, ev)
	if err != nil {
		t.Fatalf("Reduce(%s) returned error: %v", EventName(ev), err)
	}
	return next, cmds
}

func draftWith(n int) storyboard.Draft {
	draft := storyboard.Draft{Title: "Night Market"}
	for i := 0; i < n; i++ {
		draft.Scenes = append(draft.Scenes, storyboard.SceneDraft{
			Title:        "Scene",
			Action:       "Something happens",
			VisualPrompt: "prompt-" + string(rune('a'+i)),
		})
	}
	return draft
}

func analyzed(t *testing.T, mode storyboard.Mode, scenes int) (State, GenerateScene) {
	t.Helper()
	s := NewState(storyboard.ModeImage, 10)
	s, cmds := mustReduce(t, s, Submitted{StoryboardID: "sb-1", Text: "A story", Mode: mode})
	if len(cmds) != 1 {
		t.Fatalf("expected one command after submit, got %d", len(cmds))
	}
	s, cmds = mustReduce(t, s, AnalysisSucceeded{StoryboardID: "sb-1", Draft: draftWith(scenes), At: testNow})
	if len(cmds) != 1 {
		t.Fatalf("expected first scene command, got %d", len(cmds))
	}
	gen, ok := cmds[0].(GenerateScene)
	if !ok {
		t.Fatalf("expected GenerateScene, got %T", cmds[0])
	}
	return s, gen
}

func TestSubmitBlankStoryIsNoop(t *testing.T) {
	s := NewState(storyboard.ModeImage, 10)
	for _, text := range []string{"", "   ", "\n\t"} {
		next, cmds, err := Reduce(s, Submitted{StoryboardID: "x", Text: text, Mode: storyboard.ModeImage})
		if !errors.Is(err, ErrBlankStory) {
			t.Fatalf("expected ErrBlankStory, got %v", err)
		}
		if len(cmds) != 0 {
			t.Fatalf("expected no commands, got %d", len(cmds))
		}
		if next.Phase != storyboard.PhaseIdle {
			t.Fatalf("expected idle phase, got %s", next.Phase)
		}
	}
}

func TestSubmitTransitionsToAnalyzing(t *testing.T) {
	s := NewState(storyboard.ModeImage, 10)
	s.Error = "old error"
	next, cmds := mustReduce(t, s, Submitted{StoryboardID: "sb-1", Text: "Once upon a time", Mode: storyboard.ModeVideo})
	if next.Phase != storyboard.PhaseAnalyzing {
		t.Fatalf("expected analyzing, got %s", next.Phase)
	}
	if next.Error != "" {
		t.Fatalf("expected error cleared, got %q", next.Error)
	}
	if next.Mode != storyboard.ModeVideo {
		t.Fatalf("expected video mode, got %s", next.Mode)
	}
	analyze, ok := cmds[0].(AnalyzeStory)
	if !ok {
		t.Fatalf("expected AnalyzeStory, got %T", cmds[0])
	}
	if analyze.Text != "Once upon a time" || analyze.Mode != storyboard.ModeVideo {
		t.Fatalf("unexpected analyze command %+v", analyze)
	}
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	s, _ := analyzed(t, storyboard.ModeImage, 2)
	_, _, err := Reduce(s, Submitted{StoryboardID: "sb-2", Text: "again", Mode: storyboard.ModeImage})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestAnalysisSuccessBuildsPendingScenes(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeVideo, 3)
	if s.Phase != storyboard.PhaseStoryboarding {
		t.Fatalf("expected storyboarding, got %s", s.Phase)
	}
	if s.Storyboard == nil || len(s.Storyboard.Scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %+v", s.Storyboard)
	}
	if gen.Index != 0 || !gen.Sweep || gen.Attempt != 1 || gen.Prompt != "prompt-a" {
		t.Fatalf("unexpected first command %+v", gen)
	}
	for i, scene := range s.Storyboard.Scenes {
		if scene.MediaType != storyboard.ModeVideo {
			t.Fatalf("scene %d media type %s", i, scene.MediaType)
		}
		want := storyboard.StatusPending
		if i == 0 {
			want = storyboard.StatusGenerating
		}
		if scene.Status != want {
			t.Fatalf("scene %d status %s, want %s", i, scene.Status, want)
		}
	}
}

func TestAnalysisFailureReturnsToIdle(t *testing.T) {
	s := NewState(storyboard.ModeImage, 10)
	s, _ = mustReduce(t, s, Submitted{StoryboardID: "sb-1", Text: "story", Mode: storyboard.ModeImage})
	s, cmds := mustReduce(t, s, AnalysisFailed{StoryboardID: "sb-1", Err: errors.New("boom")})
	if len(cmds) != 0 {
		t.Fatalf("expected no commands, got %d", len(cmds))
	}
	if s.Phase != storyboard.PhaseIdle {
		t.Fatalf("expected idle, got %s", s.Phase)
	}
	if s.Storyboard != nil {
		t.Fatal("expected storyboard discarded")
	}
	if s.Error != AnalysisFailedMessage {
		t.Fatalf("unexpected error message %q", s.Error)
	}
}

func TestEmptyDraftIsAnalysisFailure(t *testing.T) {
	s := NewState(storyboard.ModeImage, 10)
	s, _ = mustReduce(t, s, Submitted{StoryboardID: "sb-1", Text: "story", Mode: storyboard.ModeImage})
	s, cmds := mustReduce(t, s, AnalysisSucceeded{StoryboardID: "sb-1", Draft: storyboard.Draft{Title: "x"}, At: testNow})
	if len(cmds) != 0 || s.Phase != storyboard.PhaseIdle || s.Error != AnalysisFailedMessage {
		t.Fatalf("expected analysis failure state, got phase=%s error=%q cmds=%d", s.Phase, s.Error, len(cmds))
	}
}

func TestSweepIsSequentialAndReachesViewing(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeImage, 3)
	for i := 0; i < 3; i++ {
		if gen.Index != i {
			t.Fatalf("expected scene %d to be generated next, got %d", i, gen.Index)
		}
		for j := i + 1; j < 3; j++ {
			if s.Storyboard.Scenes[j].Status != storyboard.StatusPending {
				t.Fatalf("scene %d started before scene %d resolved", j, i)
			}
		}
		var cmds []Command
		s, cmds = mustReduce(t, s, SceneSucceeded{StoryboardID: gen.StoryboardID, Index: gen.Index, Attempt: gen.Attempt, MediaURL: "data:image/png;base64,AA==", Sweep: true, At: testNow})
		if i < 2 {
			if len(cmds) != 1 {
				t.Fatalf("expected next command after scene %d", i)
			}
			gen = cmds[0].(GenerateScene)
		} else if len(cmds) != 0 {
			t.Fatalf("expected sweep to finish, got %d commands", len(cmds))
		}
	}
	if s.Phase != storyboard.PhaseViewing {
		t.Fatalf("expected viewing, got %s", s.Phase)
	}
	for i, scene := range s.Storyboard.Scenes {
		if scene.Status != storyboard.StatusCompleted || scene.MediaURL == "" {
			t.Fatalf("scene %d not completed: %+v", i, scene)
		}
	}
}

func TestSceneFailureIsLocal(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeImage, 2)
	s, cmds := mustReduce(t, s, SceneFailed{StoryboardID: gen.StoryboardID, Index: 0, Attempt: gen.Attempt, Err: errors.New("no image"), Sweep: true, At: testNow})
	if s.Phase != storyboard.PhaseStoryboarding {
		t.Fatalf("scene failure changed phase to %s", s.Phase)
	}
	if s.Storyboard.Scenes[0].Status != storyboard.StatusFailed || s.Storyboard.Scenes[0].MediaURL != "" {
		t.Fatalf("unexpected scene 0 %+v", s.Storyboard.Scenes[0])
	}
	if s.Error != "" {
		t.Fatalf("scene failure set global error %q", s.Error)
	}
	gen = cmds[0].(GenerateScene)
	s, _ = mustReduce(t, s, SceneSucceeded{StoryboardID: gen.StoryboardID, Index: 1, Attempt: gen.Attempt, MediaURL: "u", Sweep: true, At: testNow})
	if s.Phase != storyboard.PhaseViewing {
		t.Fatalf("expected viewing, got %s", s.Phase)
	}
	if s.Storyboard.Scenes[0].Status != storyboard.StatusFailed || s.Storyboard.Scenes[1].Status != storyboard.StatusCompleted {
		t.Fatalf("unexpected final statuses %s / %s", s.Storyboard.Scenes[0].Status, s.Storyboard.Scenes[1].Status)
	}
}

func finishAll(t *testing.T, s State, gen GenerateScene, fail map[int]bool) State {
	t.Helper()
	for {
		var (
			cmds []Command
			ev   Event
		)
		if fail[gen.Index] {
			ev = SceneFailed{StoryboardID: gen.StoryboardID, Index: gen.Index, Attempt: gen.Attempt, Err: errors.New("x"), Sweep: gen.Sweep, At: testNow}
		} else {
			ev = SceneSucceeded{StoryboardID: gen.StoryboardID, Index: gen.Index, Attempt: gen.Attempt, MediaURL: "u", Sweep: gen.Sweep, At: testNow}
		}
		s, cmds = mustReduce(t, s, ev)
		if len(cmds) == 0 {
			return s
		}
		gen = cmds[0].(GenerateScene)
	}
}

func TestRetryReentersGeneratingWithoutTouchingOthers(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeImage, 2)
	s = finishAll(t, s, gen, map[int]bool{0: true})
	before := s.Storyboard.Scenes[1]

	s, cmds := mustReduce(t, s, RetryRequested{Index: 0, At: testNow})
	if s.Storyboard.Scenes[0].Status != storyboard.StatusGenerating {
		t.Fatalf("expected generating, got %s", s.Storyboard.Scenes[0].Status)
	}
	if s.Phase != storyboard.PhaseViewing {
		t.Fatalf("retry changed phase to %s", s.Phase)
	}
	retry := cmds[0].(GenerateScene)
	if retry.Sweep || retry.Attempt != 2 || retry.Index != 0 {
		t.Fatalf("unexpected retry command %+v", retry)
	}
	s, cmds = mustReduce(t, s, SceneSucceeded{StoryboardID: retry.StoryboardID, Index: 0, Attempt: retry.Attempt, MediaURL: "new", At: testNow})
	if len(cmds) != 0 {
		t.Fatalf("retry result must not advance the sweep")
	}
	if s.Storyboard.Scenes[0].Status != storyboard.StatusCompleted || s.Storyboard.Scenes[0].MediaURL != "new" {
		t.Fatalf("unexpected retried scene %+v", s.Storyboard.Scenes[0])
	}
	if s.Storyboard.Scenes[1] != before {
		t.Fatalf("retry touched scene 1: %+v vs %+v", s.Storyboard.Scenes[1], before)
	}
}

func TestRetryFromCompletedClearsMedia(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeImage, 1)
	s = finishAll(t, s, gen, nil)
	s, _ = mustReduce(t, s, RetryRequested{Index: 0, At: testNow})
	if s.Storyboard.Scenes[0].MediaURL != "" {
		t.Fatal("expected media cleared while generating")
	}
}

func TestRetryPreconditions(t *testing.T) {
	s := NewState(storyboard.ModeImage, 10)
	if _, _, err := Reduce(s, RetryRequested{Index: 0}); !errors.Is(err, ErrNoStoryboard) {
		t.Fatalf("expected ErrNoStoryboard, got %v", err)
	}
	s, _ = analyzed(t, storyboard.ModeImage, 2)
	if _, _, err := Reduce(s, RetryRequested{Index: 5}); !errors.Is(err, ErrSceneOutOfRange) {
		t.Fatalf("expected ErrSceneOutOfRange, got %v", err)
	}
	if _, _, err := Reduce(s, RetryRequested{Index: 1}); !errors.Is(err, ErrSceneBusy) {
		t.Fatalf("expected ErrSceneBusy for pending scene, got %v", err)
	}
}

func TestRetryDuringSweepLeavesSweepIntact(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeImage, 3)
	s, cmds := mustReduce(t, s, SceneFailed{StoryboardID: gen.StoryboardID, Index: 0, Attempt: 1, Err: errors.New("x"), Sweep: true, At: testNow})
	sweep := cmds[0].(GenerateScene)
	s, cmds = mustReduce(t, s, RetryRequested{Index: 0, At: testNow})
	retry := cmds[0].(GenerateScene)

	s, cmds = mustReduce(t, s, SceneSucceeded{StoryboardID: retry.StoryboardID, Index: 0, Attempt: retry.Attempt, MediaURL: "r", At: testNow})
	if len(cmds) != 0 || s.Phase != storyboard.PhaseStoryboarding {
		t.Fatalf("retry result disturbed sweep: phase=%s cmds=%d", s.Phase, len(cmds))
	}
	s, cmds = mustReduce(t, s, SceneSucceeded{StoryboardID: sweep.StoryboardID, Index: 1, Attempt: sweep.Attempt, MediaURL: "s", Sweep: true, At: testNow})
	if len(cmds) != 1 || cmds[0].(GenerateScene).Index != 2 {
		t.Fatalf("expected sweep to continue with scene 2, got %+v", cmds)
	}
}

func TestResetAlwaysReturnsIdle(t *testing.T) {
	analyzing := NewState(storyboard.ModeVideo, 10)
	analyzing, _ = mustReduce(t, analyzing, Submitted{StoryboardID: "a", Text: "story", Mode: storyboard.ModeVideo})
	storyboarding, _ := analyzed(t, storyboard.ModeImage, 2)
	failed := NewState(storyboard.ModeImage, 10)
	failed.Error = AnalysisFailedMessage
	failed.Input = "text"

	for name, s := range map[string]State{"idle": NewState(storyboard.ModeImage, 10), "analyzing": analyzing, "storyboarding": storyboarding, "failed": failed} {
		next, cmds := mustReduce(t, s, ResetRequested{})
		if next.Phase != storyboard.PhaseIdle || next.Input != "" || next.Storyboard != nil || next.Error != "" || next.StoryboardID != "" {
			t.Fatalf("%s: unexpected state after reset %+v", name, next)
		}
		if next.Mode != s.Mode {
			t.Fatalf("%s: reset should keep the selected mode", name)
		}
		if s.StoryboardID != "" {
			if len(cmds) != 1 {
				t.Fatalf("%s: expected cancel command", name)
			}
			if cancel := cmds[0].(CancelStoryboard); cancel.StoryboardID != s.StoryboardID {
				t.Fatalf("%s: cancel targets %q", name, cancel.StoryboardID)
			}
		}
	}
}

func TestStaleResultsAfterResetAreIgnored(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeImage, 2)
	s, _ = mustReduce(t, s, ResetRequested{})
	next, cmds, err := Reduce(s, SceneSucceeded{StoryboardID: gen.StoryboardID, Index: 0, Attempt: gen.Attempt, MediaURL: "u", Sweep: true})
	if !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("expected ErrStaleEvent, got %v", err)
	}
	if len(cmds) != 0 || next.Storyboard != nil {
		t.Fatal("stale event changed state")
	}

	s2 := NewState(storyboard.ModeImage, 10)
	s2, _ = mustReduce(t, s2, Submitted{StoryboardID: "first", Text: "story", Mode: storyboard.ModeImage})
	s2, _ = mustReduce(t, s2, ResetRequested{})
	if _, _, err := Reduce(s2, AnalysisSucceeded{StoryboardID: "first", Draft: draftWith(1)}); !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("expected stale analysis to be ignored, got %v", err)
	}
}

func TestStaleAttemptIsIgnored(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeImage, 1)
	_, _, err := Reduce(s, SceneSucceeded{StoryboardID: gen.StoryboardID, Index: 0, Attempt: gen.Attempt + 1, MediaURL: "u", Sweep: true})
	if !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("expected ErrStaleEvent, got %v", err)
	}
}

func TestModeAndInputRejectedWhileBusy(t *testing.T) {
	s, _ := analyzed(t, storyboard.ModeImage, 1)
	if _, _, err := Reduce(s, ModeSelected{Mode: storyboard.ModeVideo}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, _, err := Reduce(s, InputChanged{Text: "x"}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	idle := NewState(storyboard.ModeImage, 10)
	if _, _, err := Reduce(idle, ModeSelected{Mode: "audio"}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	idle, _ = mustReduce(t, idle, ModeSelected{Mode: storyboard.ModeVideo})
	if idle.Mode != storyboard.ModeVideo {
		t.Fatalf("mode not applied")
	}
}

func TestReclaimInterruptedSweep(t *testing.T) {
	s, _ := analyzed(t, storyboard.ModeImage, 3)
	reclaimed := Reclaim(s, testNow)
	if reclaimed.Phase != storyboard.PhaseViewing {
		t.Fatalf("expected viewing, got %s", reclaimed.Phase)
	}
	for i, scene := range reclaimed.Storyboard.Scenes {
		if scene.Status != storyboard.StatusFailed || scene.Error != InterruptedMessage {
			t.Fatalf("scene %d not reclaimed: %+v", i, scene)
		}
	}
	if s.Storyboard.Scenes[0].Status != storyboard.StatusGenerating {
		t.Fatal("Reclaim mutated its input")
	}

	analyzing := NewState(storyboard.ModeImage, 10)
	analyzing, _ = mustReduce(t, analyzing, Submitted{StoryboardID: "a", Text: "story", Mode: storyboard.ModeImage})
	if got := Reclaim(analyzing, testNow); got.Phase != storyboard.PhaseIdle || got.StoryboardID != "" {
		t.Fatalf("expected idle after reclaiming analysis, got %+v", got)
	}
}

func TestRestoredRequiresIdleSession(t *testing.T) {
	s, _ := analyzed(t, storyboard.ModeImage, 1)
	if _, _, err := Reduce(s, Restored{State: NewState(storyboard.ModeImage, 10)}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	restored, _ := mustReduce(t, NewState(storyboard.ModeImage, 10), Restored{State: s, At: testNow})
	if restored.Storyboard == nil || restored.Phase != storyboard.PhaseViewing {
		t.Fatalf("unexpected restored state %+v", restored)
	}
}

func TestIllegalEdgesAreRejected(t *testing.T) {
	corrupt := NewState(storyboard.ModeImage, 10)
	corrupt.Phase = storyboard.Phase("archived")
	if _, _, err := Reduce(corrupt, Submitted{StoryboardID: "sb-2", Text: "story", Mode: storyboard.ModeImage}); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for unknown phase, got %v", err)
	}

	s, gen := analyzed(t, storyboard.ModeImage, 2)
	s.Storyboard.Scenes[1].Status = storyboard.SceneStatus("archived")
	next, cmds, err := Reduce(s, SceneSucceeded{StoryboardID: gen.StoryboardID, Index: 0, Attempt: gen.Attempt, MediaURL: "m", Sweep: true, At: testNow})
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition starting scene 1, got %v", err)
	}
	if len(cmds) != 0 || next.Storyboard.Scenes[0].Status != storyboard.StatusGenerating {
		t.Fatalf("expected state untouched on illegal edge, got cmds=%d scene0=%s", len(cmds), next.Storyboard.Scenes[0].Status)
	}
}

func TestRetryOfGeneratingSceneTakesOverSweep(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeImage, 2)
	s, cmds := mustReduce(t, s, RetryRequested{Index: 0, At: testNow})
	if len(cmds) != 1 {
		t.Fatalf("expected one command, got %d", len(cmds))
	}
	restart := cmds[0].(GenerateScene)
	if !restart.Sweep || restart.Attempt != gen.Attempt+1 {
		t.Fatalf("expected sweep restart with attempt %d, got %+v", gen.Attempt+1, restart)
	}
	if s.Storyboard.Scenes[0].Status != storyboard.StatusGenerating || s.Storyboard.Scenes[1].Status != storyboard.StatusPending {
		t.Fatalf("retry disturbed other scenes: %v", s.Storyboard.Scenes)
	}

	if _, _, err := Reduce(s, SceneSucceeded{StoryboardID: gen.StoryboardID, Index: 0, Attempt: gen.Attempt, MediaURL: "old", Sweep: true, At: testNow}); !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("expected superseded attempt to be stale, got %v", err)
	}
	s, cmds = mustReduce(t, s, SceneSucceeded{StoryboardID: restart.StoryboardID, Index: 0, Attempt: restart.Attempt, MediaURL: "new", Sweep: true, At: testNow})
	if len(cmds) != 1 || cmds[0].(GenerateScene).Index != 1 {
		t.Fatalf("expected sweep to continue with scene 1, got %+v", cmds)
	}
	if s.Storyboard.Scenes[0].MediaURL != "new" {
		t.Fatalf("expected restarted result, got %q", s.Storyboard.Scenes[0].MediaURL)
	}
}

func TestRetryOfRetryInFlightLeavesSweepAlone(t *testing.T) {
	s, gen := analyzed(t, storyboard.ModeImage, 3)
	s, _ = mustReduce(t, s, SceneFailed{StoryboardID: gen.StoryboardID, Index: 0, Attempt: 1, Err: errors.New("x"), Sweep: true, At: testNow})
	s, _ = mustReduce(t, s, RetryRequested{Index: 0, At: testNow})
	_, cmds := mustReduce(t, s, RetryRequested{Index: 0, At: testNow})
	if again := cmds[0].(GenerateScene); again.Sweep || again.Attempt != 3 {
		t.Fatalf("expected non-sweep attempt 3, got %+v", again)
	}
}

func TestInterruptedResultsAreNotFailures(t *testing.T) {
	s := NewState(storyboard.ModeImage, 10)
	s, _ = mustReduce(t, s, Submitted{StoryboardID: "sb-1", Text: "story", Mode: storyboard.ModeImage})
	idle, _ := mustReduce(t, s, AnalysisFailed{StoryboardID: "sb-1", Err: errors.New("context canceled"), Interrupted: true})
	if idle.Phase != storyboard.PhaseIdle || idle.Error != "" || idle.StoryboardID != "" {
		t.Fatalf("expected silent return to idle, got phase=%s error=%q id=%q", idle.Phase, idle.Error, idle.StoryboardID)
	}

	s, gen := analyzed(t, storyboard.ModeImage, 1)
	s, _ = mustReduce(t, s, SceneFailed{StoryboardID: gen.StoryboardID, Index: 0, Attempt: gen.Attempt, Err: errors.New("context canceled"), Interrupted: true, Sweep: true, At: testNow})
	if scene := s.Storyboard.Scenes[0]; scene.Status != storyboard.StatusFailed || scene.Error != InterruptedMessage {
		t.Fatalf("expected interrupted scene, got %+v", scene)
	}
}
