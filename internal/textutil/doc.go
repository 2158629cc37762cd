// Package textutil provides text helpers shared by the CLI and the asset
// sinks: filesystem-safe names, ASCII slugs with accent folding, and display
// labels for enum values.
package textutil
