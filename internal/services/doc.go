// Package services defines shared utilities consumed by the orchestrator and
// the external API clients.
//
// Key responsibilities:
//   - Context helpers that stamp storyboard IDs, scene indexes, stage names and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures from the
//     analyzer, the media generators and the asset sinks carry a consistent
//     classification into the logs.
//
// The Gemini and OpenAI-compatible clients live in subpackages.
package services
