package chunker

import (
	"math"

	"lockbox/internal/pcm"
)

// Range is a half-open millisecond interval.
type Range struct {
	StartMs int
	EndMs   int
}

// msEnergy holds prefix sums of squared samples and sample counts per
// millisecond, so any window's RMS is O(1).
type msEnergy struct {
	sums   []float64
	counts []int
}

func newMSEnergy(buf *pcm.Buffer) msEnergy {
	duration := buf.DurationMs()
	ch := buf.Format.Channels
	e := msEnergy{sums: make([]float64, duration+1), counts: make([]int, duration+1)}
	for ms := 0; ms < duration; ms++ {
		start := buf.Format.FrameAt(ms) * ch
		end := buf.Format.FrameAt(ms+1) * ch
		var sum float64
		for _, s := range buf.Samples[start:end] {
			v := float64(s)
			sum += v * v
		}
		e.sums[ms+1] = e.sums[ms] + sum
		e.counts[ms+1] = e.counts[ms] + (end - start)
	}
	return e
}

func (e msEnergy) dbfs(startMs, endMs int) float64 {
	n := e.counts[endMs] - e.counts[startMs]
	if n == 0 {
		return math.Inf(-1)
	}
	rms := math.Sqrt((e.sums[endMs] - e.sums[startMs]) / float64(n))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/float64(-math.MinInt16))
}

// DetectSilence returns ranges at least minSilenceMs long whose RMS level is
// at or below thresholdDBFS. Windows slide in 1 ms steps; silent windows
// that overlap merge into one range.
func DetectSilence(buf *pcm.Buffer, minSilenceMs int, thresholdDBFS float64) []Range {
	duration := buf.DurationMs()
	if minSilenceMs <= 0 || duration < minSilenceMs {
		return nil
	}
	energy := newMSEnergy(buf)

	var ranges []Range
	lastStart := duration - minSilenceMs
	current := Range{StartMs: -1}
	prev := -2
	for i := 0; i <= lastStart; i++ {
		if energy.dbfs(i, i+minSilenceMs) > thresholdDBFS {
			continue
		}
		if current.StartMs >= 0 && i <= prev+minSilenceMs {
			current.EndMs = i + minSilenceMs
		} else {
			if current.StartMs >= 0 {
				ranges = append(ranges, current)
			}
			current = Range{StartMs: i, EndMs: i + minSilenceMs}
		}
		prev = i
	}
	if current.StartMs >= 0 {
		ranges = append(ranges, current)
	}
	return ranges
}

// DetectNonSilent returns the complement of DetectSilence over the buffer.
func DetectNonSilent(buf *pcm.Buffer, minSilenceMs int, thresholdDBFS float64) []Range {
	duration := buf.DurationMs()
	silent := DetectSilence(buf, minSilenceMs, thresholdDBFS)
	if len(silent) == 0 {
		if duration == 0 {
			return nil
		}
		return []Range{{StartMs: 0, EndMs: duration}}
	}
	if silent[0].StartMs == 0 && silent[0].EndMs == duration {
		return nil
	}

	var ranges []Range
	prevEnd := 0
	for _, r := range silent {
		if r.StartMs > prevEnd {
			ranges = append(ranges, Range{StartMs: prevEnd, EndMs: r.StartMs})
		}
		prevEnd = r.EndMs
	}
	if prevEnd < duration {
		ranges = append(ranges, Range{StartMs: prevEnd, EndMs: duration})
	}
	return ranges
}

// Pad widens each range by keepMs on both sides, clamped to [0, durationMs].
func Pad(ranges []Range, keepMs, durationMs int) []Range {
	out := make([]Range, len(ranges))
	for i, r := range ranges {
		out[i] = Range{
			StartMs: max(0, r.StartMs-keepMs),
			EndMs:   min(durationMs, r.EndMs+keepMs),
		}
	}
	return out
}
