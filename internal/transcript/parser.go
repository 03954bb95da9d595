package transcript

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Unknown is the speaker assigned to tags missing from the SpeakerMap.
const Unknown = "unknown"

var headerPattern = regexp.MustCompile(`(\d{2,}:\d{2}:\d{2},\d{3}) --> (\d{2,}:\d{2}:\d{2},\d{3})\s+\[(.*?)\]`)

// ErrMalformedBlock is returned by strict parsing when a block does not match
// the transcript format.
var ErrMalformedBlock = errors.New("malformed transcript block")

// Segment is one contiguous span of narration attributed to a speaker.
type Segment struct {
	StartMs int
	EndMs   int
	// Speaker is the canonical speaker name, or Unknown.
	Speaker string
	// Tag is the raw tag from the transcript header, e.g. "Box1".
	Tag  string
	Text string
}

// Known reports whether the segment resolved to a mapped speaker.
func (s Segment) Known() bool {
	return s.Speaker != Unknown
}

// DurationMs returns the length of the segment.
func (s Segment) DurationMs() int {
	return s.EndMs - s.StartMs
}

// OutcomeKind classifies how a transcript block was handled.
type OutcomeKind int

const (
	// OutcomeSegment is a well-formed block with a mapped speaker.
	OutcomeSegment OutcomeKind = iota
	// OutcomeSkippedMalformed is a block that does not fit the format.
	OutcomeSkippedMalformed
	// OutcomeSkippedUnknownSpeaker is a well-formed block whose tag is not mapped.
	OutcomeSkippedUnknownSpeaker
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSegment:
		return "segment"
	case OutcomeSkippedMalformed:
		return "skipped_malformed"
	case OutcomeSkippedUnknownSpeaker:
		return "skipped_unknown_speaker"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the parse result of a single block.
type Outcome struct {
	Kind OutcomeKind
	// Block is the 1-based position of the block in the transcript.
	Block int
	// Segment is populated for OutcomeSegment and OutcomeSkippedUnknownSpeaker.
	Segment Segment
	// Reason explains a skipped malformed block.
	Reason string
}

// SpeakerMap resolves raw transcript tags to canonical speaker names.
type SpeakerMap map[string]string

// Resolve returns the canonical speaker for tag, or Unknown.
func (m SpeakerMap) Resolve(tag string) string {
	if name, ok := m[tag]; ok && name != "" {
		return name
	}
	return Unknown
}

// ParseOutcomes classifies every block of the transcript in source order.
func ParseOutcomes(content string, speakers SpeakerMap) []Outcome {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(content), "\n\n")

	outcomes := make([]Outcome, 0, len(blocks))
	for i, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		outcomes = append(outcomes, parseBlock(i+1, block, speakers))
	}
	return outcomes
}

func parseBlock(index int, block string, speakers SpeakerMap) Outcome {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	if len(lines) < 2 {
		return Outcome{Kind: OutcomeSkippedMalformed, Block: index, Reason: "block needs a header and at least one text line"}
	}
	match := headerPattern.FindStringSubmatch(lines[0])
	if match == nil {
		return Outcome{Kind: OutcomeSkippedMalformed, Block: index, Reason: fmt.Sprintf("header %q does not match \"start --> end [tag]\"", strings.TrimSpace(lines[0]))}
	}
	start, err := ParseTime(match[1])
	if err != nil {
		return Outcome{Kind: OutcomeSkippedMalformed, Block: index, Reason: err.Error()}
	}
	end, err := ParseTime(match[2])
	if err != nil {
		return Outcome{Kind: OutcomeSkippedMalformed, Block: index, Reason: err.Error()}
	}
	if end < start {
		return Outcome{Kind: OutcomeSkippedMalformed, Block: index, Reason: fmt.Sprintf("end %s precedes start %s", match[2], match[1])}
	}

	text := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		text = append(text, strings.TrimSpace(line))
	}
	tag := match[3]
	segment := Segment{
		StartMs: start,
		EndMs:   end,
		Speaker: speakers.Resolve(tag),
		Tag:     tag,
		Text:    strings.Join(text, " "),
	}
	kind := OutcomeSegment
	if !segment.Known() {
		kind = OutcomeSkippedUnknownSpeaker
	}
	return Outcome{Kind: kind, Block: index, Segment: segment}
}

// Parse returns every well-formed segment in source order, including segments
// with unknown speakers. Malformed blocks are dropped.
func Parse(content string, speakers SpeakerMap) []Segment {
	outcomes := ParseOutcomes(content, speakers)
	segments := make([]Segment, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Kind == OutcomeSkippedMalformed {
			continue
		}
		segments = append(segments, outcome.Segment)
	}
	return segments
}

// ParseStrict behaves like Parse but fails on the first malformed block.
func ParseStrict(content string, speakers SpeakerMap) ([]Segment, error) {
	outcomes := ParseOutcomes(content, speakers)
	segments := make([]Segment, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Kind == OutcomeSkippedMalformed {
			return nil, fmt.Errorf("%w: block %d: %s", ErrMalformedBlock, outcome.Block, outcome.Reason)
		}
		segments = append(segments, outcome.Segment)
	}
	return segments, nil
}

// ReadFile loads the transcript at path and classifies its blocks.
func ReadFile(path string, speakers SpeakerMap) ([]Outcome, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return ParseOutcomes(string(data), speakers), nil
}
