// Package sequence persists the lighting cue list consumed by the browser
// show sequencer.
//
// Events are written as an indented JSON array (the format the sequencer
// reads) or YAML, and a persisted file can be checked against the embedded
// JSON Schema plus the ordering rule that times never decrease.
package sequence
