// Command cineboard turns a written story into a storyboard of generated
// images or video clips.
//
// `generate` analyzes a story and sweeps every scene, optionally inside a live
// terminal view. `show`, `status` and `export` read the persisted session;
// `retry` and `reset` act on it; `serve` exposes the same session over HTTP
// and WebSocket. Commands that modify the session hold a lock on the data
// directory so only one writer runs at a time.
package main
