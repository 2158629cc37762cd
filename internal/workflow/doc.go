// Package workflow drives a CineBoard session: story analysis, the sequential
// scene sweep, per-scene retries and reset.
//
// The Orchestrator is the single writer of session state. Every collaborator
// result is turned into a session event and reduced under one mutex, so each
// scene update is a targeted write to one slot and is mirrored to the store as
// one row. Commands returned by the reducer are executed outside the lock:
// AnalyzeStory calls the analyzer, GenerateScene calls the media strategy
// resolved once per storyboard and hands the bytes to the asset sink, and
// CancelStoryboard tears down a discarded storyboard's context and assets.
//
// Results that arrive for a discarded storyboard or an older attempt are
// rejected by the reducer as stale and dropped here. Subscribers receive an
// Update after every accepted event.
package workflow
