// Package config loads, normalizes, and validates lockbox configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts and paths relative to the working directory), and reads TOML
// files. The Config type centralizes every knob the show tooling needs: the
// narration and transcript inputs, the speaker tag map, export settings for
// the per-character tracks, and the settings of the auxiliary utilities
// (normalizer, firmware header, asset embedding, chunking, transcription).
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical formats, and clear validation errors.
package config
