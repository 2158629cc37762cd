// Package tui renders a live CineBoard storyboard in the terminal.
//
// The bubbletea model subscribes to orchestrator updates and lists every scene
// with its timecode and status. The selected scene's action, dialogue and
// media reference are shown below the list; 'r' retries it when it failed and
// 'q' quits without interrupting the session.
package tui
