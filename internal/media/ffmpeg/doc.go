// Package ffmpeg drives the ffmpeg binary for every audio conversion the
// show tooling performs.
//
// Decoding streams raw s16le PCM from ffmpeg's stdout into a pcm.Buffer at the
// layout reported by ffprobe; encoding pipes a pcm.Buffer back through stdin
// to the configured MP3 codec. Filter runs a file-to-file filter chain and is
// used by the loudness normalizer. Process failures carry ffmpeg's trimmed
// stderr.
package ffmpeg
