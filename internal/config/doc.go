// Package config loads, normalizes, and validates CineBoard configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as GEMINI_API_KEY and OPENAI_API_KEY. The Config
// type centralizes every knob the CLI, API server and orchestrator need: model
// names, video polling behaviour, the asset storage backend and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
