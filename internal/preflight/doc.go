// Package preflight checks that the services and directories a storyboard
// run depends on are usable before work starts.
//
// `cineboard config check` prints every result, and `cineboard serve` refuses
// to start while any check fails. Checks for features that are not
// configured are skipped.
package preflight
