// Package ffprobe wraps ffprobe JSON output for the audio inputs the show
// tooling reads.
//
// Inspect runs ffprobe against a file and returns a Result; AudioStream and
// DurationMs pick out the values the decoder needs to request raw PCM at the
// source layout.
package ffprobe
