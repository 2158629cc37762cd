// Package testsupport holds shared helpers for package tests: temp-dir backed
// configs, store setup and fakes for the analyzer and media generator.
package testsupport
