// Package transcript parses the hand-authored narration transcript.
//
// A transcript is a sequence of blank-line separated blocks. The first line
// of a block carries the time range and the speaker tag:
//
//	00:00:00,340 --> 00:00:03,119 [Box1]
//	Hello there, elves!
//
// Remaining lines are the spoken text. Tags resolve to canonical speaker
// names through a SpeakerMap; unmapped tags resolve to Unknown. Blocks that
// do not fit the format are reported as skipped outcomes rather than errors,
// so callers decide whether to log, count, or fail.
package transcript
