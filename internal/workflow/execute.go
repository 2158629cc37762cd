package workflow

import (
	"context"
	"errors"
	"time"

	"cineboard/internal/assets"
	"cineboard/internal/logging"
	"cineboard/internal/services"
	"cineboard/internal/session"
)

const (
	stageAnalyze = "analyze"
	stageMedia   = "media"
)

// errNoScenes marks an analyzer result without any scene.
var errNoScenes = errors.New("analyzer returned no scenes")

// execute performs one command and returns the event describing its outcome,
// or nil when there is nothing to reduce.
func (o *Orchestrator) execute(ctx context.Context, cmd session.Command) session.Event {
	switch c := cmd.(type) {
	case session.AnalyzeStory:
		return o.analyze(ctx, c)
	case session.GenerateScene:
		return o.generateScene(ctx, c)
	case session.CancelStoryboard:
		o.cancelStoryboard(ctx, c)
		return nil
	default:
		o.logger.Warn("unknown command", logging.String("command", session.CommandName(cmd)))
		return nil
	}
}

// scoped derives a context that ends when either the storyboard run or the
// caller's context ends.
func (o *Orchestrator) scoped(ctx context.Context, id string) (context.Context, context.CancelFunc, bool) {
	run, ok := o.run(id)
	if !ok {
		return nil, nil, false
	}
	scoped, cancel := context.WithCancel(run.ctx)
	if ctx != nil {
		stop := context.AfterFunc(ctx, cancel)
		return scoped, func() { stop(); cancel() }, true
	}
	return scoped, cancel, true
}

func (o *Orchestrator) analyze(ctx context.Context, cmd session.AnalyzeStory) session.Event {
	runCtx, cancel, ok := o.scoped(ctx, cmd.StoryboardID)
	if !ok {
		return nil
	}
	defer cancel()
	runCtx = services.WithStoryboardID(runCtx, cmd.StoryboardID)
	runCtx = services.WithStage(runCtx, stageAnalyze)
	logger := logging.WithContext(runCtx, o.logger)

	started := time.Now()
	logger.Info("analyzing story",
		logging.String("mode", string(cmd.Mode)),
		logging.Int("story_chars", len(cmd.Text)),
	)

	draft, err := o.analyzer.Analyze(runCtx, cmd.Text, cmd.Mode)
	if err == nil && len(draft.Scenes) == 0 {
		err = services.Wrap(services.ErrValidation, stageAnalyze, "analyze", "empty breakdown", errNoScenes)
	}
	if err != nil {
		interrupted := runCtx.Err() != nil
		if interrupted {
			logger.Info("story analysis interrupted", logging.Error(err))
		} else {
			logging.ErrorWithContext(logger, "story analysis failed", "story_analysis_failed",
				logging.Error(err),
				logging.String("error_kind", services.Kind(err)),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.Duration("duration", time.Since(started)),
			)
		}
		return session.AnalysisFailed{StoryboardID: cmd.StoryboardID, Err: err, Interrupted: interrupted}
	}

	logger.Info("story analyzed",
		logging.String("title", draft.Title),
		logging.Int("scenes", len(draft.Scenes)),
		logging.Duration("duration", time.Since(started)),
	)
	return session.AnalysisSucceeded{StoryboardID: cmd.StoryboardID, Draft: draft, At: o.now()}
}

func (o *Orchestrator) generateScene(ctx context.Context, cmd session.GenerateScene) session.Event {
	runCtx, cancel, ok := o.scoped(ctx, cmd.StoryboardID)
	if !ok {
		return nil
	}
	defer cancel()
	defer o.claim(cmd, cancel)()
	runCtx = services.WithStoryboardID(runCtx, cmd.StoryboardID)
	runCtx = services.WithSceneIndex(runCtx, cmd.Index)
	runCtx = services.WithStage(runCtx, stageMedia)
	logger := logging.WithContext(runCtx, o.logger)

	started := time.Now()
	logger.Info("generating scene",
		logging.String("mode", string(cmd.Mode)),
		logging.Int("attempt", cmd.Attempt),
		logging.Bool("sweep", cmd.Sweep),
	)

	url, err := o.produce(runCtx, cmd)
	if err != nil {
		interrupted := runCtx.Err() != nil
		if interrupted {
			logger.Debug("scene generation cancelled", logging.Error(err))
		} else {
			logging.WarnWithContext(logger, "scene generation failed", "scene_generation_failed",
				logging.Error(err),
				logging.Int("attempt", cmd.Attempt),
				logging.String("error_kind", services.Kind(err)),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.String(logging.FieldImpact, "scene marked failed; remaining scenes continue"),
				logging.Duration("duration", time.Since(started)),
			)
		}
		return session.SceneFailed{
			StoryboardID: cmd.StoryboardID,
			Index:        cmd.Index,
			Attempt:      cmd.Attempt,
			Err:          err,
			Interrupted:  interrupted,
			Sweep:        cmd.Sweep,
			At:           o.now(),
		}
	}

	logger.Info("scene generated",
		logging.Int("attempt", cmd.Attempt),
		logging.String("sink", o.sink.Name()),
		logging.Duration("duration", time.Since(started)),
	)
	return session.SceneSucceeded{
		StoryboardID: cmd.StoryboardID,
		Index:        cmd.Index,
		Attempt:      cmd.Attempt,
		MediaURL:     url,
		Sweep:        cmd.Sweep,
		At:           o.now(),
	}
}

// produce runs the storyboard's strategy and stores the asset.
func (o *Orchestrator) produce(ctx context.Context, cmd session.GenerateScene) (string, error) {
	run, ok := o.run(cmd.StoryboardID)
	if !ok {
		return "", context.Canceled
	}
	if run.genErr != nil {
		return "", services.Wrap(services.ErrConfiguration, stageMedia, "strategy", string(cmd.Mode), run.genErr)
	}
	if run.generator == nil {
		return "", services.Wrap(services.ErrConfiguration, stageMedia, "strategy", "no generator resolved", nil)
	}

	asset, err := run.generator.Generate(ctx, cmd.Prompt)
	if err != nil {
		return "", err
	}
	if len(asset.Data) == 0 {
		return "", services.Wrap(services.ErrValidation, stageMedia, "generate", "empty asset", nil)
	}

	ref := assets.Ref{
		StoryboardID: cmd.StoryboardID,
		Index:        cmd.Index,
		Attempt:      cmd.Attempt,
		Title:        o.sceneTitle(cmd.StoryboardID, cmd.Index),
	}
	url, err := o.sink.Store(ctx, ref, asset)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageMedia, "store asset", o.sink.Name(), err)
	}
	return url, nil
}

// claim records cmd as the live attempt for its scene and cancels an older
// attempt still running. The returned func releases the claim.
func (o *Orchestrator) claim(cmd session.GenerateScene, cancel context.CancelFunc) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	run, ok := o.runs[cmd.StoryboardID]
	if !ok {
		return func() {}
	}
	if prev, ok := run.attempts[cmd.Index]; ok && prev.attempt < cmd.Attempt {
		prev.cancel()
	}
	run.attempts[cmd.Index] = liveAttempt{attempt: cmd.Attempt, cancel: cancel}
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if cur, ok := run.attempts[cmd.Index]; ok && cur.attempt == cmd.Attempt {
			delete(run.attempts, cmd.Index)
		}
	}
}

func (o *Orchestrator) sceneTitle(id string, index int) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Storyboard == nil || o.state.Storyboard.ID != id {
		return ""
	}
	scene, ok := o.state.Scene(index)
	if !ok {
		return ""
	}
	return scene.Title
}

func (o *Orchestrator) cancelStoryboard(ctx context.Context, cmd session.CancelStoryboard) {
	if run, ok := o.run(cmd.StoryboardID); ok {
		run.cancel()
	}
	purgeCtx := context.WithoutCancel(o.ctx)
	if ctx != nil {
		purgeCtx = context.WithoutCancel(ctx)
	}
	if err := o.sink.Purge(purgeCtx, cmd.StoryboardID); err != nil {
		o.logger.Warn("failed to purge storyboard assets",
			logging.String(logging.FieldStoryboardID, cmd.StoryboardID),
			logging.Error(err),
		)
		return
	}
	o.logger.Info("storyboard discarded", logging.String(logging.FieldStoryboardID, cmd.StoryboardID))
}
