package chunker

import (
	"fmt"
	"math"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"lockbox/internal/fileutil"
	"lockbox/internal/pcm"
)

// streamer adapts a pcm.Buffer to beep's float stereo frames. Mono buffers
// feed the same value to both channels.
func streamer(buf *pcm.Buffer) beep.Streamer {
	ch := buf.Format.Channels
	frames := buf.Frames()
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= frames {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < frames {
			left := float64(buf.Samples[pos*ch]) / math.MaxInt16
			right := left
			if ch > 1 {
				right = float64(buf.Samples[pos*ch+1]) / math.MaxInt16
			}
			samples[n] = [2]float64{left, right}
			n++
			pos++
		}
		return n, true
	})
}

// WriteWAV encodes buf as 16-bit PCM WAV. Only mono and stereo are supported.
func WriteWAV(path string, buf *pcm.Buffer) error {
	if buf.Format.Channels < 1 || buf.Format.Channels > 2 {
		return fmt.Errorf("write wav: unsupported channel count %d", buf.Format.Channels)
	}
	if err := fileutil.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(buf.Format.SampleRate),
		NumChannels: buf.Format.Channels,
		Precision:   2,
	}
	if err := wav.Encode(f, streamer(buf), format); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode wav %s: %w", path, err)
	}
	return f.Close()
}
