package storyboard

var sceneTransitions = map[SceneStatus]map[SceneStatus]struct{}{
	StatusPending: {
		StatusGenerating: {},
	},
	StatusGenerating: {
		StatusGenerating: {},
		StatusCompleted:  {},
		StatusFailed:     {},
	},
	StatusCompleted: {
		StatusGenerating: {},
	},
	StatusFailed: {
		StatusGenerating: {},
	},
}

// CanTransition reports whether a scene may move from one status to another.
func CanTransition(from, to SceneStatus) bool {
	next, ok := sceneTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

var phaseTransitions = map[Phase]map[Phase]struct{}{
	PhaseIdle: {
		PhaseAnalyzing: {},
	},
	PhaseAnalyzing: {
		PhaseStoryboarding: {},
		PhaseIdle:          {},
	},
	PhaseStoryboarding: {
		PhaseViewing: {},
	},
	PhaseViewing: {
		PhaseAnalyzing: {},
	},
}

// CanAdvance reports whether the pipeline may move between phases. Reset is
// always allowed and is not modelled here.
func CanAdvance(from, to Phase) bool {
	if to == PhaseIdle && from == PhaseIdle {
		return true
	}
	next, ok := phaseTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}
