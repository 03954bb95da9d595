// Package whisperx drafts show transcripts with WhisperX.
//
// The narration is extracted to a mono 16 kHz WAV through ffmpeg, WhisperX
// runs under uvx to produce JSON segments, and the segments are rendered in
// the transcript block format with a placeholder speaker tag so the box
// assignments can be filled in by hand.
package whisperx
