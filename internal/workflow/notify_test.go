package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cineboard/internal/storyboard"
	"cineboard/internal/workflow"
)

type readyCall struct {
	title             string
	completed, failed int
	elapsed           time.Duration
}

type recordingNotifier struct {
	mu       sync.Mutex
	ready    []readyCall
	failures []error
	err      error
}

func (n *recordingNotifier) NotifyStoryboardReady(_ context.Context, title string, completed, failed int, elapsed time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ready = append(n.ready, readyCall{title: title, completed: completed, failed: failed, elapsed: elapsed})
	return n.err
}

func (n *recordingNotifier) NotifyAnalysisFailed(_ context.Context, cause error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, cause)
	return n.err
}

func (n *recordingNotifier) snapshot() ([]readyCall, []error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]readyCall(nil), n.ready...), append([]error(nil), n.failures...)
}

func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestSweepCompletionIsAnnounced(t *testing.T) {
	notifier := &recordingNotifier{}
	h := newHarness(t, 3, workflow.WithNotifier(notifier), workflow.WithClock(steppingClock(time.Second)))
	h.image.SetFailure("prompt-1", errors.New("blocked"))

	if err := h.orch.StartGeneration(context.Background(), "A car chase at night", storyboard.ModeImage); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	h.orch.Wait()

	waitFor(t, "ready notification", func() bool {
		ready, _ := notifier.snapshot()
		return len(ready) == 1
	})
	ready, failures := notifier.snapshot()
	got := ready[0]
	if got.title != "Night Drive" || got.completed != 2 || got.failed != 1 {
		t.Fatalf("unexpected ready notification %+v", got)
	}
	if got.elapsed <= 0 {
		t.Fatalf("expected positive elapsed time, got %s", got.elapsed)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected analysis failure notifications: %v", failures)
	}

	h.image.SetFailure("prompt-1", nil)
	if err := h.orch.RetryScene(context.Background(), 1); err != nil {
		t.Fatalf("RetryScene: %v", err)
	}
	h.orch.Reset(context.Background())
	time.Sleep(20 * time.Millisecond)
	if ready, _ := notifier.snapshot(); len(ready) != 1 {
		t.Fatalf("retry and reset must not announce, got %d notifications", len(ready))
	}
}

func TestAnalysisFailureIsAnnounced(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("ntfy down")}
	h := newHarness(t, 2, workflow.WithNotifier(notifier))
	h.analyzer.Err = errors.New("quota exhausted")

	if err := h.orch.StartGeneration(context.Background(), "A car chase at night", storyboard.ModeImage); err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}

	waitFor(t, "analysis failure notification", func() bool {
		_, failures := notifier.snapshot()
		return len(failures) == 1
	})
	_, failures := notifier.snapshot()
	if failures[0] == nil || failures[0].Error() != "quota exhausted" {
		t.Fatalf("unexpected cause %v", failures[0])
	}
	if state := h.orch.Snapshot(); state.Phase != storyboard.PhaseIdle {
		t.Fatalf("a failing notifier must not change the session, phase = %q", state.Phase)
	}
}

func TestInterruptedRunsAreNotAnnounced(t *testing.T) {
	notifier := &recordingNotifier{}
	h := newHarness(t, 2, workflow.WithNotifier(notifier))
	h.image.SetGate("prompt-1")

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan error, 1)
	go func() { finished <- h.orch.StartGeneration(ctx, "A car chase at night", storyboard.ModeImage) }()
	waitFor(t, "scene 1 generating", func() bool {
		got := statuses(h.orch.Snapshot())
		return len(got) == 2 && got[1] == storyboard.StatusGenerating
	})
	cancel()
	if err := <-finished; err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	waitFor(t, "sweep settled", func() bool {
		return h.orch.Snapshot().Phase == storyboard.PhaseViewing
	})
	h.orch.Wait()

	if scene := h.orch.Snapshot().Storyboard.Scenes[1]; scene.Status != storyboard.StatusFailed || scene.Error != "interrupted" {
		t.Fatalf("expected interrupted scene, got %+v", scene)
	}

	h.analyzer.Gate = make(chan struct{})
	ctx, cancel = context.WithCancel(context.Background())
	go func() { finished <- h.orch.StartGeneration(ctx, "Another story", storyboard.ModeImage) }()
	waitFor(t, "analysis started", func() bool {
		return len(h.analyzer.Calls()) == 2
	})
	cancel()
	if err := <-finished; err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	h.orch.Wait()
	if state := h.orch.Snapshot(); state.Phase != storyboard.PhaseIdle || state.Error != "" {
		t.Fatalf("expected silent idle after interrupted analysis, got phase=%s error=%q", state.Phase, state.Error)
	}

	ready, failures := notifier.snapshot()
	if len(ready) != 0 || len(failures) != 0 {
		t.Fatalf("expected no notifications, got ready=%v failures=%v", ready, failures)
	}
}
