// Package show assembles the finale assets from one narration recording.
//
// Synthesize cuts each transcript segment out of the source audio and mixes
// it onto the owning character's otherwise silent track, recording an on/off
// speaking cue per segment. Assembler wraps that in a full run: read the
// transcript, decode the narration, export one MP3 per character, and write
// the lighting sequence.
package show
