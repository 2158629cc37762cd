package workflow

import (
	"context"
	"time"

	"cineboard/internal/logging"
	"cineboard/internal/session"
)

const storeTimeout = 5 * time.Second

// changedScenes lists scene indexes whose content differs between two states
// of the same storyboard.
func changedScenes(prev, next session.State) []int {
	if prev.Storyboard == nil || next.Storyboard == nil || prev.Storyboard.ID != next.Storyboard.ID {
		return nil
	}
	var changed []int
	for i := range next.Storyboard.Scenes {
		if i >= len(prev.Storyboard.Scenes) || prev.Storyboard.Scenes[i] != next.Storyboard.Scenes[i] {
			changed = append(changed, i)
		}
	}
	return changed
}

// persistLocked mirrors one reducer step into the store: a new storyboard is
// written whole, a scene change is one row, and a discarded storyboard is
// deleted. Write failures are logged and do not affect the session.
func (o *Orchestrator) persistLocked(prev, next session.State, changed []int) {
	if o.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(o.ctx), storeTimeout)
	defer cancel()

	prevID := ""
	if prev.Storyboard != nil {
		prevID = prev.Storyboard.ID
	}
	nextID := ""
	if next.Storyboard != nil {
		nextID = next.Storyboard.ID
	}

	if prevID != "" && prevID != nextID {
		o.storeFailed("delete storyboard", o.store.DeleteStoryboard(ctx, prevID))
	}
	switch {
	case nextID != "" && nextID != prevID:
		o.storeFailed("save storyboard", o.store.SaveStoryboard(ctx, *next.Storyboard))
	case nextID != "":
		for _, idx := range changed {
			o.storeFailed("update scene", o.store.UpdateScene(ctx, nextID, next.Storyboard.Scenes[idx]))
		}
	}
	if sessionChanged(prev, next) {
		o.storeFailed("save session", o.store.SaveSession(ctx, next))
	}
}

func sessionChanged(prev, next session.State) bool {
	return prev.Input != next.Input ||
		prev.Mode != next.Mode ||
		prev.Phase != next.Phase ||
		prev.StoryboardID != next.StoryboardID ||
		prev.Error != next.Error
}

func (o *Orchestrator) storeFailed(op string, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(o.logger, "session store write failed", "store_write_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the data_dir permissions and free space"),
		logging.String(logging.FieldImpact, "state will not survive a restart"),
	)
}
