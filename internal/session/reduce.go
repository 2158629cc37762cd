package session

import (
	"fmt"
	"strings"
	"time"

	"cineboard/internal/storyboard"
)

// InterruptedMessage is recorded on scenes whose generation was cut short by a
// process exit.
const InterruptedMessage = "interrupted"

// Reduce applies ev to s. On error the original state is returned unchanged
// together with no commands.
func Reduce(s State, ev Event) (State, []Command, error) {
	next := s.Clone()
	var (
		cmds []Command
		err  error
	)
	switch e := ev.(type) {
	case Submitted:
		cmds, err = reduceSubmitted(&next, e)
	case AnalysisSucceeded:
		cmds, err = reduceAnalysisSucceeded(&next, e)
	case AnalysisFailed:
		err = reduceAnalysisFailed(&next, e)
	case SceneSucceeded:
		cmds, err = reduceSceneResult(&next, e.StoryboardID, e.Index, e.Attempt, e.Sweep, e.At, storyboard.StatusCompleted, func(scene *storyboard.Scene) {
			scene.MediaURL = e.MediaURL
			scene.Error = ""
		})
	case SceneFailed:
		cmds, err = reduceSceneResult(&next, e.StoryboardID, e.Index, e.Attempt, e.Sweep, e.At, storyboard.StatusFailed, func(scene *storyboard.Scene) {
			scene.MediaURL = ""
			scene.Error = errorText(e.Err)
			if e.Interrupted {
				scene.Error = InterruptedMessage
			}
		})
	case RetryRequested:
		cmds, err = reduceRetry(&next, e)
	case ResetRequested:
		cmds = reduceReset(&next)
	case ModeSelected:
		err = reduceModeSelected(&next, e)
	case InputChanged:
		if next.Phase.Busy() {
			err = ErrBusy
		} else {
			next.Input = e.Text
		}
	case Restored:
		err = reduceRestored(&next, e)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	if err != nil {
		return s, nil, err
	}
	return next, cmds, nil
}

func reduceSubmitted(s *State, e Submitted) ([]Command, error) {
	if strings.TrimSpace(e.Text) == "" {
		return nil, ErrBlankStory
	}
	if s.Phase.Busy() {
		return nil, ErrBusy
	}
	if !e.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, e.Mode)
	}
	if strings.TrimSpace(e.StoryboardID) == "" {
		return nil, fmt.Errorf("submit: storyboard id required")
	}

	if err := advance(s, storyboard.PhaseAnalyzing); err != nil {
		return nil, err
	}

	var cmds []Command
	if s.StoryboardID != "" {
		cmds = append(cmds, CancelStoryboard{StoryboardID: s.StoryboardID})
	}

	s.Input = e.Text
	s.Mode = e.Mode
	s.Error = ""
	s.Storyboard = nil
	s.StoryboardID = e.StoryboardID

	cmds = append(cmds, AnalyzeStory{StoryboardID: e.StoryboardID, Text: e.Text, Mode: e.Mode})
	return cmds, nil
}

func reduceAnalysisSucceeded(s *State, e AnalysisSucceeded) ([]Command, error) {
	if s.Phase != storyboard.PhaseAnalyzing || e.StoryboardID != s.StoryboardID {
		return nil, ErrStaleEvent
	}
	if len(e.Draft.Scenes) == 0 {
		return nil, failAnalysis(s)
	}

	board := storyboard.New(e.StoryboardID, e.Draft, s.Mode, s.SceneSeconds, e.At)
	s.Storyboard = &board
	if err := advance(s, storyboard.PhaseStoryboarding); err != nil {
		return nil, err
	}
	return startScene(s, 0, true, e.At)
}

func reduceAnalysisFailed(s *State, e AnalysisFailed) error {
	if s.Phase != storyboard.PhaseAnalyzing || e.StoryboardID != s.StoryboardID {
		return ErrStaleEvent
	}
	if e.Interrupted {
		return abandonAnalysis(s)
	}
	return failAnalysis(s)
}

func failAnalysis(s *State) error {
	if err := abandonAnalysis(s); err != nil {
		return err
	}
	s.Error = AnalysisFailedMessage
	return nil
}

// abandonAnalysis returns to idle without reporting a failure.
func abandonAnalysis(s *State) error {
	if err := advance(s, storyboard.PhaseIdle); err != nil {
		return err
	}
	s.Storyboard = nil
	s.StoryboardID = ""
	return nil
}

func reduceSceneResult(s *State, id string, index, attempt int, sweep bool, at time.Time, target storyboard.SceneStatus, apply func(*storyboard.Scene)) ([]Command, error) {
	if s.Storyboard == nil || s.Storyboard.ID != id {
		return nil, ErrStaleEvent
	}
	if !s.Storyboard.InRange(index) {
		return nil, ErrSceneOutOfRange
	}
	scene := &s.Storyboard.Scenes[index]
	if scene.Status != storyboard.StatusGenerating || scene.Attempts != attempt {
		return nil, ErrStaleEvent
	}
	if err := setStatus(scene, index, target); err != nil {
		return nil, err
	}
	apply(scene)
	scene.UpdatedAt = at

	if !sweep || s.Phase != storyboard.PhaseStoryboarding {
		return nil, nil
	}
	nextIndex := index + 1
	if nextIndex >= len(s.Storyboard.Scenes) {
		return nil, advance(s, storyboard.PhaseViewing)
	}
	return startScene(s, nextIndex, true, at)
}

func reduceRetry(s *State, e RetryRequested) ([]Command, error) {
	if s.Storyboard == nil {
		return nil, ErrNoStoryboard
	}
	if !s.Storyboard.InRange(e.Index) {
		return nil, fmt.Errorf("%w: %d", ErrSceneOutOfRange, e.Index)
	}
	status := s.Storyboard.Scenes[e.Index].Status
	if status == storyboard.StatusPending {
		return nil, fmt.Errorf("%w: scene %d is %s", ErrSceneBusy, e.Index, status)
	}
	// Restarting the scene the sweep is waiting on hands the sweep to the new
	// attempt; the superseded result is stale.
	sweep := status == storyboard.StatusGenerating && s.Phase == storyboard.PhaseStoryboarding && e.Index == sweepCursor(s.Storyboard)
	return startScene(s, e.Index, sweep, e.At)
}

// sweepCursor is the scene the sweep is on: every later scene is still pending.
func sweepCursor(board *storyboard.Storyboard) int {
	for i := len(board.Scenes) - 1; i >= 0; i-- {
		if board.Scenes[i].Status != storyboard.StatusPending {
			return i
		}
	}
	return -1
}

// startScene moves one scene into generating and builds the command for it.
func startScene(s *State, index int, sweep bool, at time.Time) ([]Command, error) {
	scene := &s.Storyboard.Scenes[index]
	if err := setStatus(scene, index, storyboard.StatusGenerating); err != nil {
		return nil, err
	}
	scene.Attempts++
	scene.MediaURL = ""
	scene.Error = ""
	scene.UpdatedAt = at
	return []Command{GenerateScene{
		StoryboardID: s.Storyboard.ID,
		Index:        index,
		Attempt:      scene.Attempts,
		Prompt:       scene.VisualPrompt,
		Mode:         s.Storyboard.Mode,
		Sweep:        sweep,
	}}, nil
}

// advance moves the session phase along an edge of the pipeline. Reset and
// restore rebuild the state instead of advancing it.
func advance(s *State, to storyboard.Phase) error {
	if !storyboard.CanAdvance(s.Phase, to) {
		return fmt.Errorf("%w: phase %s -> %s", ErrIllegalTransition, s.Phase, to)
	}
	s.Phase = to
	return nil
}

func setStatus(scene *storyboard.Scene, index int, to storyboard.SceneStatus) error {
	if !storyboard.CanTransition(scene.Status, to) {
		return fmt.Errorf("%w: scene %d %s -> %s", ErrIllegalTransition, index, scene.Status, to)
	}
	scene.Status = to
	return nil
}

func reduceReset(s *State) []Command {
	var cmds []Command
	if s.StoryboardID != "" {
		cmds = append(cmds, CancelStoryboard{StoryboardID: s.StoryboardID})
	}
	*s = NewState(s.Mode, s.SceneSeconds)
	return cmds
}

func reduceModeSelected(s *State, e ModeSelected) error {
	if s.Phase.Busy() {
		return ErrBusy
	}
	if !e.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, e.Mode)
	}
	s.Mode = e.Mode
	return nil
}

func reduceRestored(s *State, e Restored) error {
	if s.Phase != storyboard.PhaseIdle || s.Storyboard != nil {
		return ErrBusy
	}
	sceneSeconds := s.SceneSeconds
	*s = Reclaim(e.State, e.At)
	if s.SceneSeconds <= 0 {
		s.SceneSeconds = sceneSeconds
	}
	return nil
}

// Reclaim settles a persisted state whose owning process exited mid-flight.
// Unfinished scenes become failed so they can be retried, an interrupted sweep
// lands in viewing, and an interrupted analysis returns to idle.
func Reclaim(s State, at time.Time) State {
	out := s.Clone()
	if !out.Mode.Valid() {
		out.Mode = storyboard.ModeImage
	}
	switch out.Phase {
	case storyboard.PhaseAnalyzing:
		out.Phase = storyboard.PhaseIdle
		out.Storyboard = nil
		out.StoryboardID = ""
		return out
	case storyboard.PhaseStoryboarding:
		out.Phase = storyboard.PhaseViewing
	case storyboard.PhaseIdle, storyboard.PhaseViewing:
	default:
		out.Phase = storyboard.PhaseIdle
	}
	if out.Storyboard == nil {
		if out.Phase == storyboard.PhaseViewing {
			out.Phase = storyboard.PhaseIdle
		}
		out.StoryboardID = ""
		return out
	}
	out.StoryboardID = out.Storyboard.ID
	if out.Phase == storyboard.PhaseIdle {
		out.Phase = storyboard.PhaseViewing
	}
	// Reclaim bypasses setStatus: a persisted scene may hold any status.
	for i := range out.Storyboard.Scenes {
		scene := &out.Storyboard.Scenes[i]
		if scene.Status.Terminal() {
			continue
		}
		scene.Status = storyboard.StatusFailed
		scene.MediaURL = ""
		scene.Error = InterruptedMessage
		scene.UpdatedAt = at
	}
	return out
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
