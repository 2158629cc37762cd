// Package analyzer produces the scene breakdown for a story.
//
// Two backends share one prompt, one JSON Schema (reflected from
// storyboard.Draft) and one validation step: GeminiAnalyzer calls
// generateContent with responseJsonSchema, and LLMAnalyzer calls an
// OpenAI-compatible chat API with response_format.json_schema. Any failure is
// returned as an error; the orchestrator turns it into the single user-facing
// analysis failure message.
package analyzer
