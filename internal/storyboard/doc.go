// Package storyboard defines the CineBoard domain model: storyboards, the
// scenes they contain, and the lifecycle enums shared by the orchestrator,
// the persistence layer and every presentation surface.
//
// Scenes move along pending -> generating -> completed|failed. A retry may
// re-enter generating from either terminal status. CanTransition encodes those
// edges so the reducer and the store agree on what a legal update looks like.
package storyboard
