// Package api serves the CineBoard session over HTTP.
//
// Routes are registered on a gin engine and backed by the workflow
// orchestrator: read the session, save a draft, submit a story, retry a scene,
// reset, switch modes, and follow every session update over a WebSocket. Long-running
// intents (submission and retry) are validated synchronously so precondition
// failures map to 4xx responses, then run in the background and report
// progress through the event stream.
//
// DTOs use camelCase JSON tags. When paths.api_token is set every route except
// /api/health requires an "Authorization: Bearer <token>" header; the
// WebSocket route also accepts the token as a query parameter since browsers
// cannot set headers on upgrade requests.
package api
