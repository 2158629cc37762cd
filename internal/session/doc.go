// Package session holds the CineBoard session state and the pure reducer that
// advances it.
//
// Reduce maps (State, Event) to a new State plus the Commands the orchestrator
// must execute against external collaborators. It performs no I/O, takes no
// locks and reads no clocks, so the whole pipeline can be exercised in tests by
// feeding events and inspecting the commands that come back.
//
// Results from collaborators carry the storyboard id and the scene attempt
// they belong to. Anything that no longer matches the live state is rejected
// with ErrStaleEvent and leaves the state untouched.
package session
