package show

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lockbox/internal/manifest"
	"lockbox/internal/pcm"
	"lockbox/internal/sequence"
	"lockbox/internal/transcript"
)

var mono = pcm.Format{SampleRate: 1000, Channels: 1}

// narration returns a buffer whose sample at frame i is i+1, so any
// non-zero region in a track can be traced back to its source offset.
func narration(durationMs int) *pcm.Buffer {
	buf := pcm.Silent(mono, durationMs)
	for i := range buf.Samples {
		buf.Samples[i] = int16(i + 1)
	}
	return buf
}

var defaultSpeakers = transcript.SpeakerMap{"Box1": "kristine", "Box2": "jacob", "Box3": "sam"}

const scenarioTranscript = "00:00:00,000 --> 00:00:02,000 [Box1]\nHello\n\n00:00:01,000 --> 00:00:03,000 [Box2]\nHi\n"

func assertActive(t *testing.T, name string, track *pcm.Buffer, startMs, endMs int) {
	t.Helper()
	if !track.IsSilent(0, startMs) {
		t.Fatalf("%s: expected silence before %d", name, startMs)
	}
	if !track.IsSilent(endMs, track.DurationMs()) {
		t.Fatalf("%s: expected silence from %d", name, endMs)
	}
	for ms := startMs; ms < endMs; ms++ {
		if track.Samples[ms] != int16(ms+1) {
			t.Fatalf("%s: sample at %dms = %d, want source value %d", name, ms, track.Samples[ms], ms+1)
		}
	}
}

type eventTuple struct {
	time  int
	box   string
	state sequence.State
}

func assertEvents(t *testing.T, got []sequence.Event, want []eventTuple) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		e := got[i]
		if e.Time != w.time || e.Box != w.box || e.State != w.state {
			t.Fatalf("event %d: got (%d,%s,%s) want (%d,%s,%s)", i, e.Time, e.Box, e.State, w.time, w.box, w.state)
		}
		if e.Action != sequence.ActionAnim || e.Type != sequence.TypeSpeaking {
			t.Fatalf("event %d: unexpected action/type %q/%q", i, e.Action, e.Type)
		}
	}
}

func TestSynthesizeScenario(t *testing.T) {
	segments := transcript.Parse(scenarioTranscript, defaultSpeakers)
	mix, err := Synthesize(narration(4000), segments, []string{"jacob", "kristine", "sam"}, nil)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	assertActive(t, "kristine", mix.Tracks["kristine"], 0, 2000)
	assertActive(t, "jacob", mix.Tracks["jacob"], 1000, 3000)
	if !mix.Tracks["sam"].IsSilent(0, 4000) {
		t.Fatal("expected sam to stay silent")
	}
	for name, track := range mix.Tracks {
		if track.DurationMs() != 4000 || track.Format != mono {
			t.Fatalf("%s: track does not match source layout: %dms %+v", name, track.DurationMs(), track.Format)
		}
	}
	assertEvents(t, mix.Events, []eventTuple{
		{0, "kristine", sequence.StateOn},
		{1000, "jacob", sequence.StateOn},
		{2000, "kristine", sequence.StateOff},
		{3000, "jacob", sequence.StateOff},
	})
}

func TestSynthesizeSkipsUnknownSpeakers(t *testing.T) {
	content := "00:00:00,500 --> 00:00:01,500 [Narrator]\nOnce upon a time\n"
	segments := transcript.Parse(content, defaultSpeakers)
	if len(segments) != 1 || segments[0].Speaker != transcript.Unknown {
		t.Fatalf("expected one unknown segment, got %+v", segments)
	}
	mix, err := Synthesize(narration(2000), segments, []string{"jacob", "kristine", "sam"}, nil)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if mix.Unknown != 1 {
		t.Fatalf("expected unknown count 1, got %d", mix.Unknown)
	}
	if len(mix.Events) != 0 {
		t.Fatalf("expected no events, got %+v", mix.Events)
	}
	if _, ok := mix.Tracks[transcript.Unknown]; ok {
		t.Fatal("unknown speaker must not get a track")
	}
	for name, track := range mix.Tracks {
		if !track.IsSilent(0, 2000) {
			t.Fatalf("%s: expected silence", name)
		}
	}
}

func TestSynthesizeClampsToSourceDuration(t *testing.T) {
	segments := []transcript.Segment{
		{StartMs: 800, EndMs: 5000, Speaker: "sam", Tag: "Box3"},
		{StartMs: 1500, EndMs: 1800, Speaker: "jacob", Tag: "Box2"},
	}
	mix, err := Synthesize(narration(1000), segments, []string{"jacob", "sam"}, nil)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	assertActive(t, "sam", mix.Tracks["sam"], 800, 1000)
	if !mix.Tracks["jacob"].IsSilent(0, 1000) {
		t.Fatal("segment past the end must not add audio")
	}
	for _, p := range mix.Placements {
		if !p.Clamped || p.EndMs > 1000 {
			t.Fatalf("expected clamped placement, got %+v", p)
		}
	}
	assertEvents(t, mix.Events, []eventTuple{
		{800, "sam", sequence.StateOn},
		{1000, "sam", sequence.StateOff},
		{1000, "jacob", sequence.StateOn},
		{1000, "jacob", sequence.StateOff},
	})
}

func TestSynthesizeMixesSameSpeakerOverlap(t *testing.T) {
	segments := []transcript.Segment{
		{StartMs: 100, EndMs: 300, Speaker: "sam"},
		{StartMs: 200, EndMs: 400, Speaker: "sam"},
	}
	mix, err := Synthesize(narration(500), segments, []string{"sam"}, nil)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	track := mix.Tracks["sam"]
	if track.Samples[250] != int16(2*(250+1)) {
		t.Fatalf("expected additive mix in overlap, got %d", track.Samples[250])
	}
	if track.Samples[350] != 351 {
		t.Fatalf("expected single contribution after overlap, got %d", track.Samples[350])
	}
}

func TestSynthesizeSortsOutOfOrderSegments(t *testing.T) {
	content := strings.Join([]string{
		"00:00:03,000 --> 00:00:03,500 [Box3]\nLast",
		"00:00:00,100 --> 00:00:00,900 [Box1]\nFirst",
		"00:00:01,000 --> 00:00:02,000 [Box2]\nMiddle",
	}, "\n\n")
	mix, err := Synthesize(narration(4000), transcript.Parse(content, defaultSpeakers), []string{"jacob", "kristine", "sam"}, nil)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	for i := 1; i < len(mix.Events); i++ {
		if mix.Events[i].Time < mix.Events[i-1].Time {
			t.Fatalf("events out of order at %d: %+v", i, mix.Events)
		}
	}
	if mix.Events[0].Box != "kristine" || mix.Events[len(mix.Events)-1].Box != "sam" {
		t.Fatalf("unexpected ordering: %+v", mix.Events)
	}
}

func TestTrackFileName(t *testing.T) {
	cases := []struct {
		prefix, speaker, want string
	}{
		{"Finale", "kristine", "Finale_Kristine.mp3"},
		{"Finale", "JACOB", "Finale_Jacob.mp3"},
		{"", "sam", "Sam.mp3"},
	}
	for _, tc := range cases {
		if got := TrackFileName(tc.prefix, tc.speaker); got != tc.want {
			t.Fatalf("TrackFileName(%q, %q) = %q, want %q", tc.prefix, tc.speaker, got, tc.want)
		}
	}
}

type fakeCodec struct {
	source  *pcm.Buffer
	err     error
	encoded map[string]*pcm.Buffer
}

func (f *fakeCodec) Decode(context.Context, string) (*pcm.Buffer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.source, nil
}

func (f *fakeCodec) Encode(_ context.Context, buf *pcm.Buffer, path string) error {
	if f.encoded == nil {
		f.encoded = map[string]*pcm.Buffer{}
	}
	f.encoded[path] = buf
	return os.WriteFile(path, []byte("mp3"), 0o644)
}

type fakeRecorder struct {
	entries []manifest.Entry
}

func (f *fakeRecorder) Record(_ context.Context, e manifest.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func newRunOptions(t *testing.T, content string) Options {
	t.Helper()
	dir := t.TempDir()
	transcriptPath := filepath.Join(dir, "manual_transcript.txt")
	if err := os.WriteFile(transcriptPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	sourcePath := filepath.Join(dir, "narration.mp3")
	if err := os.WriteFile(sourcePath, []byte("id3"), 0o644); err != nil {
		t.Fatal(err)
	}
	return Options{
		SourcePath:     sourcePath,
		TranscriptPath: transcriptPath,
		OutputDir:      filepath.Join(dir, "www", "audio"),
		SequencePath:   filepath.Join(dir, "www", "show_sequence.json"),
		SequenceFormat: sequence.FormatJSON,
		Speakers:       defaultSpeakers,
		FilePrefix:     "Finale",
		Bitrate:        "128k",
	}
}

func TestAssemblerRunWritesTracksAndSequence(t *testing.T) {
	opts := newRunOptions(t, "garbage block\n\n"+scenarioTranscript+"\n00:00:03,000 --> 00:00:03,500 [Elf]\nHo\n")
	codec := &fakeCodec{source: narration(4000)}
	recorder := &fakeRecorder{}

	summary, err := NewAssembler(opts, codec, recorder, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Blocks != 4 || summary.Segments != 2 || summary.Malformed != 1 || summary.Unknown != 1 {
		t.Fatalf("unexpected summary counts: %+v", summary)
	}
	if summary.SourceDurationMs != 4000 || summary.Events != 4 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	for _, name := range []string{"Finale_Kristine.mp3", "Finale_Jacob.mp3", "Finale_Sam.mp3"} {
		path := filepath.Join(opts.OutputDir, name)
		if _, ok := codec.encoded[path]; !ok {
			t.Fatalf("expected %s to be exported", name)
		}
	}
	assertActive(t, "kristine", codec.encoded[filepath.Join(opts.OutputDir, "Finale_Kristine.mp3")], 0, 2000)

	if len(summary.Tracks) != 3 || summary.Tracks[1].Speaker != "kristine" || summary.Tracks[1].SpeakingMs != 2000 {
		t.Fatalf("unexpected track results: %+v", summary.Tracks)
	}

	events, err := sequence.Load(opts.SequencePath)
	if err != nil {
		t.Fatalf("Load sequence: %v", err)
	}
	assertEvents(t, events, []eventTuple{
		{0, "kristine", sequence.StateOn},
		{1000, "jacob", sequence.StateOn},
		{2000, "kristine", sequence.StateOff},
		{3000, "jacob", sequence.StateOff},
	})

	if len(recorder.entries) != 4 {
		t.Fatalf("expected 4 manifest entries, got %d", len(recorder.entries))
	}
	if recorder.entries[3].Kind != manifest.KindSequence || recorder.entries[0].InputHash == "" {
		t.Fatalf("unexpected manifest entries: %+v", recorder.entries)
	}
}

func TestAssemblerStrictRejectsMalformed(t *testing.T) {
	opts := newRunOptions(t, scenarioTranscript+"\n00:00:05,000 --> 00:00:04,000 [Box1]\nBackwards\n")
	opts.Strict = true
	codec := &fakeCodec{source: narration(4000)}

	_, err := NewAssembler(opts, codec, nil, nil).Run(context.Background())
	if !errors.Is(err, transcript.ErrMalformedBlock) {
		t.Fatalf("expected ErrMalformedBlock, got %v", err)
	}
	if len(codec.encoded) != 0 {
		t.Fatal("strict failure must not export tracks")
	}
}

func TestAssemblerFailsOnUndecodableSource(t *testing.T) {
	opts := newRunOptions(t, scenarioTranscript)
	codec := &fakeCodec{err: errors.New("invalid data")}
	_, err := NewAssembler(opts, codec, nil, nil).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid data") {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, statErr := os.Stat(opts.SequencePath); !os.IsNotExist(statErr) {
		t.Fatal("sequence must not be written after a fatal decode error")
	}
}

func TestAssemblerMissingTranscript(t *testing.T) {
	opts := newRunOptions(t, scenarioTranscript)
	opts.TranscriptPath = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := NewAssembler(opts, &fakeCodec{source: narration(10)}, nil, nil).Run(context.Background()); err == nil {
		t.Fatal("expected error for missing transcript")
	}
}
