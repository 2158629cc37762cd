package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cineboard/internal/analyzer"
	"cineboard/internal/assets"
	"cineboard/internal/logging"
	"cineboard/internal/media"
	"cineboard/internal/session"
	"cineboard/internal/storyboard"
)

// Orchestrator owns the session and coordinates the analyzer, the media
// strategies, the asset sink and the store.
type Orchestrator struct {
	analyzer analyzer.Analyzer
	factory  media.Factory
	sink     assets.Sink
	store    Store
	notifier Notifier
	logger   *slog.Logger

	initialMode  storyboard.Mode
	sceneSeconds int
	now          func() time.Time
	newID        func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   session.State
	runs    map[string]*boardRun
	subs    map[int]chan Update
	nextSub int

	sweepStarted time.Time
}

// boardRun scopes in-flight work to one storyboard.
type boardRun struct {
	ctx       context.Context
	cancel    context.CancelFunc
	generator media.Generator
	genErr    error
	attempts  map[int]liveAttempt
}

type liveAttempt struct {
	attempt int
	cancel  context.CancelFunc
}

// New constructs an orchestrator. The analyzer and factory are required.
func New(an analyzer.Analyzer, factory media.Factory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		analyzer:     an,
		factory:      factory,
		sink:         assets.InlineSink{},
		logger:       logging.NewNop(),
		initialMode:  storyboard.ModeImage,
		sceneSeconds: storyboard.SceneSeconds,
		now:          time.Now,
		newID:        uuid.NewString,
		runs:         make(map[string]*boardRun),
		subs:         make(map[int]chan Update),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "orchestrator")
	o.state = session.NewState(o.initialMode, o.sceneSeconds)
	o.ctx, o.cancel = context.WithCancel(context.Background())
	return o
}

// Snapshot returns a deep copy of the session state.
func (o *Orchestrator) Snapshot() session.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// StartGeneration analyzes text and sweeps every scene in order. It blocks
// until the sweep has attempted every scene or the analysis failed. Only
// precondition rejections are returned.
func (o *Orchestrator) StartGeneration(ctx context.Context, text string, mode storyboard.Mode) error {
	id, cmds, err := o.beginGeneration(text, mode)
	if err != nil {
		return err
	}
	o.drain(ctx, cmds)
	o.awaitSweep(ctx, id)
	return nil
}

// StartGenerationAsync validates and starts a generation on a background
// goroutine. The returned channel closes when the sweep finishes.
func (o *Orchestrator) StartGenerationAsync(text string, mode storyboard.Mode) (<-chan struct{}, error) {
	id, cmds, err := o.beginGeneration(text, mode)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(done)
		o.drain(o.ctx, cmds)
		o.awaitSweep(o.ctx, id)
	}()
	return done, nil
}

func (o *Orchestrator) beginGeneration(text string, mode storyboard.Mode) (string, []session.Command, error) {
	id := o.newID()
	cmds, err := o.dispatch(session.Submitted{StoryboardID: id, Text: text, Mode: mode})
	return id, cmds, err
}

// awaitSweep blocks while storyboard id is still in flight. A retry that
// restarts the scene the sweep is on carries the sweep forward on the
// retrying goroutine, so the submitter's own drain can end early.
func (o *Orchestrator) awaitSweep(ctx context.Context, id string) {
	updates, unsubscribe := o.Subscribe()
	defer unsubscribe()
	for {
		state := o.Snapshot()
		if state.StoryboardID != id || !state.Phase.Busy() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-o.ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
		}
	}
}

// RetryScene regenerates one scene and blocks until it resolves again. It
// never touches another scene or the phase, except that restarting the scene
// the sweep is waiting on continues the sweep from here.
func (o *Orchestrator) RetryScene(ctx context.Context, index int) error {
	cmds, err := o.dispatch(session.RetryRequested{Index: index, At: o.now()})
	if err != nil {
		return err
	}
	o.drain(ctx, cmds)
	return nil
}

// RetrySceneAsync validates a retry and runs it on a background goroutine.
func (o *Orchestrator) RetrySceneAsync(index int) (<-chan struct{}, error) {
	cmds, err := o.dispatch(session.RetryRequested{Index: index, At: o.now()})
	if err != nil {
		return nil, err
	}
	return o.background(cmds), nil
}

// Reset discards the storyboard, input and error and returns to idle. The
// selected mode is kept and in-flight work for the discarded storyboard is
// cancelled.
func (o *Orchestrator) Reset(ctx context.Context) {
	cmds, err := o.dispatch(session.ResetRequested{})
	if err != nil {
		o.logger.Error("reset rejected", logging.Error(err))
		return
	}
	o.drain(ctx, cmds)
}

// SelectMode changes the mode used by the next submission.
func (o *Orchestrator) SelectMode(mode storyboard.Mode) error {
	_, err := o.dispatch(session.ModeSelected{Mode: mode})
	return err
}

// SetInput records the story text being edited.
func (o *Orchestrator) SetInput(text string) error {
	_, err := o.dispatch(session.InputChanged{Text: text})
	return err
}

// Restore installs the persisted session, reclaiming work interrupted by a
// previous process. It is a no-op without a store or saved session.
func (o *Orchestrator) Restore(ctx context.Context) error {
	if o.store == nil {
		return nil
	}
	saved, ok, err := o.store.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if _, err := o.dispatch(session.Restored{State: saved, At: o.now()}); err != nil {
		return err
	}
	state := o.Snapshot()
	if state.Storyboard != nil {
		o.logger.Info("session restored",
			logging.String(logging.FieldStoryboardID, state.Storyboard.ID),
			logging.String("phase", string(state.Phase)),
			logging.Int("scenes", len(state.Storyboard.Scenes)),
		)
	}
	return nil
}

// Wait blocks until background work started by the async variants finishes.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels all in-flight work and waits for background goroutines.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
	o.mu.Lock()
	for id, sub := range o.subs {
		close(sub)
		delete(o.subs, id)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) background(cmds []session.Command) <-chan struct{} {
	done := make(chan struct{})
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(done)
		o.drain(o.ctx, cmds)
	}()
	return done
}

// dispatch reduces ev under the lock, mirrors the change to the store and
// subscribers, and returns the commands to execute.
func (o *Orchestrator) dispatch(ev session.Event) ([]session.Command, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	prev := o.state
	next, cmds, err := session.Reduce(prev, ev)
	if err != nil {
		return nil, err
	}
	o.state = next
	o.syncRunsLocked(next)
	changed := changedScenes(prev, next)
	o.persistLocked(prev, next, changed)
	o.publishLocked(ev, next, changed)
	o.announceLocked(prev, next, ev)
	return cmds, nil
}

// drain executes commands until the reducer stops issuing new ones.
func (o *Orchestrator) drain(ctx context.Context, cmds []session.Command) {
	for len(cmds) > 0 {
		cmd := cmds[0]
		cmds = cmds[1:]

		ev := o.execute(ctx, cmd)
		if ev == nil {
			continue
		}
		more, err := o.dispatch(ev)
		if err != nil {
			o.discard(ev, err)
			continue
		}
		cmds = append(cmds, more...)
	}
}

func (o *Orchestrator) discard(ev session.Event, err error) {
	attrs := []logging.Attr{
		logging.String("event", session.EventName(ev)),
		logging.Error(err),
	}
	if !errors.Is(err, session.ErrStaleEvent) {
		o.logger.Warn("event rejected", logging.Args(attrs...)...)
		return
	}
	o.logger.Debug("discarding stale result", logging.Args(attrs...)...)
	if success, ok := ev.(session.SceneSucceeded); ok {
		o.purgeIfDiscarded(success.StoryboardID)
	}
}

// syncRunsLocked keeps exactly one run alive: the one for the current
// storyboard. Runs for discarded storyboards are cancelled.
func (o *Orchestrator) syncRunsLocked(state session.State) {
	for id, run := range o.runs {
		if id != state.StoryboardID {
			run.cancel()
			delete(o.runs, id)
		}
	}
	if state.StoryboardID == "" {
		return
	}
	run, ok := o.runs[state.StoryboardID]
	if !ok {
		runCtx, cancel := context.WithCancel(o.ctx)
		run = &boardRun{ctx: runCtx, cancel: cancel, attempts: make(map[int]liveAttempt)}
		o.runs[state.StoryboardID] = run
	}
	if state.Storyboard != nil && run.generator == nil && run.genErr == nil {
		run.generator, run.genErr = o.factory.ForMode(state.Storyboard.Mode)
	}
}

func (o *Orchestrator) run(id string) (*boardRun, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	run, ok := o.runs[id]
	return run, ok
}

func (o *Orchestrator) purgeIfDiscarded(id string) {
	o.mu.Lock()
	current := o.state.StoryboardID
	o.mu.Unlock()
	if id == "" || id == current {
		return
	}
	if err := o.sink.Purge(context.WithoutCancel(o.ctx), id); err != nil {
		o.logger.Warn("failed to purge discarded assets",
			logging.String(logging.FieldStoryboardID, id),
			logging.Error(err),
		)
	}
}
