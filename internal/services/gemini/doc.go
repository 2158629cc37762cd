// Package gemini is a small REST client for the Gemini API covering the three
// calls CineBoard needs: generateContent (structured text and images),
// predictLongRunning video jobs with operation polling, and authenticated
// asset downloads.
//
// Requests authenticate with an x-goog-api-key header, or with Application
// Default Credentials through golang.org/x/oauth2/google. Transient failures
// (408/429/5xx, timeouts) are retried through the shared retry policy.
package gemini
