// Package llm provides an OpenAI-compatible chat client (OpenRouter, OpenAI,
// local gateways) used as an alternative story analysis backend.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive a JSON object.
// Client.CompleteJSONSchema: same, constrained by a JSON Schema via
// response_format.json_schema.
// Client.HealthCheck: verify API key and model availability.
// DecodeJSON: tolerant decoding of fenced or prose-wrapped JSON.
//
// # Retry Behaviour
//
// Requests go through the shared retry policy: HTTP 408/429/5xx, network
// timeouts, and empty completions are retried with exponential backoff (base
// 1s, max 10s, up to 5 attempts by default). Context cancellation aborts
// retries immediately.
package llm
