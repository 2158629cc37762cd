package workflow

import (
	"context"
	"log/slog"
	"time"

	"cineboard/internal/assets"
	"cineboard/internal/session"
	"cineboard/internal/storyboard"
)

// Store is the persistence the orchestrator mirrors state into. It is
// satisfied by *store.Store.
type Store interface {
	SaveSession(ctx context.Context, state session.State) error
	SaveStoryboard(ctx context.Context, board storyboard.Storyboard) error
	UpdateScene(ctx context.Context, storyboardID string, scene storyboard.Scene) error
	DeleteStoryboard(ctx context.Context, id string) error
	Load(ctx context.Context) (session.State, bool, error)
}

// Notifier announces storyboard milestones. It is satisfied by
// notifications.Service.
type Notifier interface {
	NotifyStoryboardReady(ctx context.Context, title string, completed, failed int, elapsed time.Duration) error
	NotifyAnalysisFailed(ctx context.Context, cause error) error
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithStore attaches persistence. Without it the session lives in memory.
func WithStore(st Store) Option {
	return func(o *Orchestrator) { o.store = st }
}

// WithSink overrides the asset sink. The default keeps media inline as data URIs.
func WithSink(sink assets.Sink) Option {
	return func(o *Orchestrator) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNotifier announces finished sweeps and analysis failures.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithMode sets the mode selected before the first submission.
func WithMode(mode storyboard.Mode) Option {
	return func(o *Orchestrator) { o.initialMode = mode }
}

// WithSceneSeconds sets the screen time of one scene.
func WithSceneSeconds(seconds int) Option {
	return func(o *Orchestrator) { o.sceneSeconds = seconds }
}

// WithClock replaces time.Now; tests use it for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator replaces the storyboard id source.
func WithIDGenerator(next func() string) Option {
	return func(o *Orchestrator) {
		if next != nil {
			o.newID = next
		}
	}
}
