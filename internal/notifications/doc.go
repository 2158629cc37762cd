// Package notifications announces storyboard milestones via ntfy.
//
// The ntfy implementation posts to the topic URL configured under
// [notifications] and degrades to a no-op when no topic is set, so the
// orchestrator can always call it. Delivery failures are returned to the
// caller, which logs them; they never affect the session.
package notifications
