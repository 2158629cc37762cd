package workflow

import (
	"context"
	"time"

	"cineboard/internal/logging"
	"cineboard/internal/session"
	"cineboard/internal/storyboard"
)

const notifyTimeout = 15 * time.Second

// announceLocked turns phase milestones into notifications. Restores, resets
// and interrupted runs never announce anything.
func (o *Orchestrator) announceLocked(prev, next session.State, ev session.Event) {
	if _, ok := ev.(session.Submitted); ok {
		o.sweepStarted = o.now()
	}
	if o.notifier == nil {
		return
	}

	switch e := ev.(type) {
	case session.AnalysisFailed:
		if e.Interrupted || prev.Phase != storyboard.PhaseAnalyzing || next.Phase != storyboard.PhaseIdle {
			return
		}
		cause := e.Err
		o.notify("analysis_failed", func(ctx context.Context) error {
			return o.notifier.NotifyAnalysisFailed(ctx, cause)
		})
	default:
		if failed, ok := e.(session.SceneFailed); ok && failed.Interrupted {
			return
		}
		if prev.Phase != storyboard.PhaseStoryboarding || next.Phase != storyboard.PhaseViewing || next.Storyboard == nil {
			return
		}
		title := next.Storyboard.Title
		counts := next.Storyboard.Counts()
		elapsed := o.now().Sub(o.sweepStarted)
		o.notify("storyboard_ready", func(ctx context.Context) error {
			return o.notifier.NotifyStoryboardReady(ctx, title, counts[storyboard.StatusCompleted], counts[storyboard.StatusFailed], elapsed)
		})
	}
}

// notify delivers off the dispatch path. Delivery outlives cancellation of
// the orchestrator so a final notification is not lost on shutdown.
func (o *Orchestrator) notify(milestone string, send func(context.Context) error) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(o.ctx), notifyTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			logging.WarnWithContext(o.logger, "notification failed", "notification_failed",
				logging.String("milestone", milestone),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "the storyboard is unaffected"),
				logging.Error(err),
			)
		}
	}()
}
