package show

import (
	"fmt"
	"log/slog"
	"sort"

	"lockbox/internal/logging"
	"lockbox/internal/pcm"
	"lockbox/internal/sequence"
	"lockbox/internal/transcript"
)

// Placement records where a segment landed after clamping.
type Placement struct {
	Segment transcript.Segment
	StartMs int
	EndMs   int
	Clamped bool
}

// Mix is the output of Synthesize.
type Mix struct {
	// Tracks holds one buffer per canonical speaker.
	Tracks map[string]*pcm.Buffer
	// Events is sorted by time.
	Events     []sequence.Event
	Placements []Placement
	// Unknown counts segments skipped because their tag is unmapped.
	Unknown int
}

// Speakers returns the track names in sorted order.
func (m *Mix) Speakers() []string {
	names := make([]string, 0, len(m.Tracks))
	for name := range m.Tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Synthesize builds one track per speaker and the lighting cues. Segments
// are applied in source order; each reads from source, never from another
// track, so overlapping speakers stay isolated.
func Synthesize(source *pcm.Buffer, segments []transcript.Segment, speakers []string, logger *slog.Logger) (*Mix, error) {
	if source == nil {
		return nil, fmt.Errorf("synthesize: nil source")
	}
	if err := source.Format.Validate(); err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	duration := source.DurationMs()
	mix := &Mix{Tracks: make(map[string]*pcm.Buffer, len(speakers))}
	for _, name := range speakers {
		mix.Tracks[name] = pcm.Silent(source.Format, duration)
	}

	for _, seg := range segments {
		track, ok := mix.Tracks[seg.Speaker]
		if !ok {
			mix.Unknown++
			logging.WarnWithContext(logger, "skipping segment with unmapped speaker tag", "unknown_speaker",
				logging.String("tag", seg.Tag),
				logging.String("start", transcript.FormatTime(seg.StartMs)),
				logging.String(logging.FieldImpact, "line is missing from every character track"),
			)
			continue
		}

		start := min(max(seg.StartMs, 0), duration)
		end := min(max(seg.EndMs, start), duration)
		clamped := start != seg.StartMs || end != seg.EndMs
		if clamped {
			logger.Debug("segment clamped to source duration",
				logging.String(logging.FieldSpeaker, seg.Speaker),
				logging.Int("start_ms", seg.StartMs),
				logging.Int("end_ms", seg.EndMs),
				logging.Int("duration_ms", duration),
			)
		}

		if err := track.Overlay(source.Slice(start, end), start); err != nil {
			return nil, fmt.Errorf("overlay %s at %d: %w", seg.Speaker, start, err)
		}
		logger.Info("placed segment",
			logging.String(logging.FieldSpeaker, seg.Speaker),
			logging.Int("start_ms", start),
			logging.Int("end_ms", end),
			logging.String("text", preview(seg.Text, 20)),
		)

		mix.Placements = append(mix.Placements, Placement{Segment: seg, StartMs: start, EndMs: end, Clamped: clamped})
		mix.Events = append(mix.Events,
			sequence.Speaking(start, seg.Speaker, sequence.StateOn),
			sequence.Speaking(end, seg.Speaker, sequence.StateOff),
		)
	}

	sequence.Sort(mix.Events)
	return mix, nil
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
