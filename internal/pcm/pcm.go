// Package pcm holds decoded audio as interleaved signed 16-bit samples and
// implements the millisecond-addressed operations the show tooling needs:
// silence, slicing, additive overlay, and loudness measurement.
package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Format describes the sample layout of a Buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// Validate reports whether the format can address samples.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("pcm format: invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("pcm format: invalid channel count %d", f.Channels)
	}
	return nil
}

// FrameAt converts a millisecond offset to a frame index (floor).
func (f Format) FrameAt(ms int) int {
	if ms <= 0 {
		return 0
	}
	return int(int64(ms) * int64(f.SampleRate) / 1000)
}

// Buffer is interleaved s16 PCM audio.
type Buffer struct {
	Format  Format
	Samples []int16
}

// ErrFormatMismatch is returned when two buffers with different layouts are mixed.
var ErrFormatMismatch = errors.New("pcm format mismatch")

// Silent returns a zeroed buffer lasting durationMs.
func Silent(format Format, durationMs int) *Buffer {
	frames := format.FrameAt(durationMs)
	return &Buffer{Format: format, Samples: make([]int16, frames*format.Channels)}
}

// FromS16LE decodes little-endian s16 bytes. A trailing partial frame is dropped.
func FromS16LE(data []byte, format Format) (*Buffer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	frameBytes := 2 * format.Channels
	usable := len(data) - len(data)%frameBytes
	samples := make([]int16, usable/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return &Buffer{Format: format, Samples: samples}, nil
}

// S16LE encodes the buffer as little-endian s16 bytes.
func (b *Buffer) S16LE() []byte {
	out := make([]byte, len(b.Samples)*2)
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b == nil || b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// DurationMs returns the buffer length in whole milliseconds.
func (b *Buffer) DurationMs() int {
	if b == nil || b.Format.SampleRate <= 0 {
		return 0
	}
	return int(int64(b.Frames()) * 1000 / int64(b.Format.SampleRate))
}

// frameRange clamps [startMs, endMs) to the buffer and returns frame bounds.
func (b *Buffer) frameRange(startMs, endMs int) (int, int) {
	frames := b.Frames()
	start := min(b.Format.FrameAt(startMs), frames)
	end := min(b.Format.FrameAt(endMs), frames)
	if end < start {
		end = start
	}
	return start, end
}

// Slice copies [startMs, endMs) into a new buffer. Bounds past the end of the
// buffer are clamped, so the result never reads beyond the source.
func (b *Buffer) Slice(startMs, endMs int) *Buffer {
	start, end := b.frameRange(startMs, endMs)
	ch := b.Format.Channels
	samples := make([]int16, (end-start)*ch)
	copy(samples, b.Samples[start*ch:end*ch])
	return &Buffer{Format: b.Format, Samples: samples}
}

// Overlay mixes src onto b starting at positionMs. Samples add with int16
// saturation; anything past the end of b is discarded.
func (b *Buffer) Overlay(src *Buffer, positionMs int) error {
	if src == nil {
		return nil
	}
	if b.Format != src.Format {
		return fmt.Errorf("%w: %+v onto %+v", ErrFormatMismatch, src.Format, b.Format)
	}
	offset := b.Format.FrameAt(positionMs) * b.Format.Channels
	if offset >= len(b.Samples) {
		return nil
	}
	dst := b.Samples[offset:]
	n := min(len(dst), len(src.Samples))
	for i := 0; i < n; i++ {
		dst[i] = saturate(int32(dst[i]) + int32(src.Samples[i]))
	}
	return nil
}

func saturate(v int32) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}

// IsSilent reports whether every sample in [startMs, endMs) is zero.
func (b *Buffer) IsSilent(startMs, endMs int) bool {
	start, end := b.frameRange(startMs, endMs)
	ch := b.Format.Channels
	for _, s := range b.Samples[start*ch : end*ch] {
		if s != 0 {
			return false
		}
	}
	return true
}

// DBFS returns the RMS level of [startMs, endMs) relative to full scale.
// Silence reports negative infinity.
func (b *Buffer) DBFS(startMs, endMs int) float64 {
	start, end := b.frameRange(startMs, endMs)
	ch := b.Format.Channels
	return rmsDBFS(b.Samples[start*ch : end*ch])
}

// OverallDBFS returns the RMS level of the whole buffer.
func (b *Buffer) OverallDBFS() float64 {
	return rmsDBFS(b.Samples)
}

func rmsDBFS(samples []int16) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/float64(-math.MinInt16))
}
