// Package media holds the per-scene generation strategies.
//
// A Generator turns one visual prompt into one Asset. ImageGenerator makes a
// single generateContent call; VideoGenerator passes the key gate, submits a
// predictLongRunning job, waits on a Poller and downloads the clip. Factory
// picks the strategy for a storyboard mode, and the orchestrator keeps that
// choice for the lifetime of the storyboard.
package media
