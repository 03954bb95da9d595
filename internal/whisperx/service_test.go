package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"lockbox/internal/pcm"
	"lockbox/internal/transcript"
)

type fakeExtractor struct {
	calls  int
	format pcm.Format
	err    error
}

func (f *fakeExtractor) ExtractWAV(_ context.Context, _, output string, format pcm.Format) error {
	f.calls++
	f.format = format
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(output, []byte("RIFF"), 0o644)
}

const whisperJSON = `{"segments":[
  {"text":" Hello there. ","start":0.0,"end":1.2504},
  {"text":"   ","start":1.3,"end":1.4},
  {"text":"Welcome to the show.","start":2.5,"end":4.75}
]}`

func newTestService(t *testing.T, cfg Config, payload string) (*Service, *fakeExtractor, *[]string) {
	t.Helper()
	extractor := &fakeExtractor{}
	svc := NewService(cfg, "", extractor)
	var captured []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		captured = append([]string{name}, args...)
		idx := slices.Index(args, "--output_dir")
		if idx < 0 {
			t.Fatalf("missing --output_dir in %v", args)
		}
		base := strings.TrimSuffix(filepath.Base(args[slices.Index(args, "whisperx")+1]), ".wav")
		return os.WriteFile(filepath.Join(args[idx+1], base+".json"), []byte(payload), 0o644)
	})
	return svc, extractor, &captured
}

func TestBuildArgsCPU(t *testing.T) {
	svc := NewService(Config{Language: "en-US"}, "", nil)
	args := svc.buildArgs("/work/a.wav", "/work")
	want := []string{
		"--index-url", PypiIndexURL,
		"whisperx", "/work/a.wav",
		"--model", "base",
		"--batch_size", BatchSize,
		"--output_dir", "/work",
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--language", "en",
		"--device", CPUDevice, "--compute_type", CPUComputeType,
	}
	if !slices.Equal(args, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", args, want)
	}
}

func TestBuildArgsCUDA(t *testing.T) {
	svc := NewService(Config{Model: "large-v3", CUDAEnabled: true}, "", nil)
	args := svc.buildArgs("/work/a.wav", "/work")
	if args[0] != "--index-url" || args[1] != CUDAIndexURL {
		t.Fatalf("expected CUDA index first, got %v", args[:2])
	}
	if slices.Contains(args, "--language") {
		t.Fatalf("expected no language flag, got %v", args)
	}
	if args[len(args)-2] != "--device" || args[len(args)-1] != CUDADevice {
		t.Fatalf("expected cuda device, got %v", args)
	}
	if idx := slices.Index(args, "--model"); args[idx+1] != "large-v3" {
		t.Fatalf("expected configured model, got %v", args)
	}
}

func TestIsoLanguage(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"en":    "en",
		"en-GB": "en",
		"eng":   "en",
		"fr-CA": "fr",
		"???":   "",
	}
	for in, want := range cases {
		if got := isoLanguage(in); got != want {
			t.Fatalf("isoLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToTranscriptDropsBlankSegments(t *testing.T) {
	got := ToTranscript([]Segment{
		{Text: " Hi ", Start: 0.5, End: 1.0004},
		{Text: "", Start: 1, End: 2},
		{Text: "Backwards", Start: 3, End: 2},
	}, "")
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %+v", got)
	}
	if got[0].StartMs != 500 || got[0].EndMs != 1000 || got[0].Text != "Hi" || got[0].Tag != "Unassigned" {
		t.Fatalf("unexpected first segment %+v", got[0])
	}
	if got[1].EndMs != got[1].StartMs {
		t.Fatalf("expected end clamped to start, got %+v", got[1])
	}
}

func TestDraftWritesEditableTranscript(t *testing.T) {
	dir := t.TempDir()
	svc, extractor, captured := newTestService(t, Config{}, whisperJSON)
	opts := DraftOptions{
		SourcePath:     "narration.mp3",
		OutputPath:     filepath.Join(dir, "draft.txt"),
		WorkDir:        filepath.Join(dir, "work"),
		PlaceholderTag: "Unassigned",
	}

	result, err := svc.Draft(context.Background(), opts, nil)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if extractor.calls != 1 || extractor.format != (pcm.Format{SampleRate: SampleRate, Channels: 1}) {
		t.Fatalf("unexpected extraction: calls=%d format=%+v", extractor.calls, extractor.format)
	}
	if (*captured)[0] != UVXCommand {
		t.Fatalf("expected uvx launcher, got %v", *captured)
	}
	if result.Segments != 2 {
		t.Fatalf("expected 2 segments, got %d", result.Segments)
	}

	data, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatalf("read draft: %v", err)
	}
	want := "00:00:00,000 --> 00:00:01,250 [Unassigned]\nHello there.\n\n" +
		"00:00:02,500 --> 00:00:04,750 [Unassigned]\nWelcome to the show.\n"
	if string(data) != want {
		t.Fatalf("unexpected draft:\n%s", data)
	}

	outcomes := transcript.ParseOutcomes(string(data), transcript.SpeakerMap{"Box1": "kristine"})
	for _, o := range outcomes {
		if o.Kind != transcript.OutcomeSkippedUnknownSpeaker {
			t.Fatalf("draft block %d: expected unassigned speaker, got %v (%s)", o.Block, o.Kind, o.Reason)
		}
	}
}

func TestDraftRefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "draft.txt")
	if err := os.WriteFile(out, []byte("edited by hand"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc, extractor, _ := newTestService(t, Config{}, whisperJSON)

	_, err := svc.Draft(context.Background(), DraftOptions{OutputPath: out, WorkDir: dir}, nil)
	if !errors.Is(err, ErrDraftExists) {
		t.Fatalf("expected ErrDraftExists, got %v", err)
	}
	if extractor.calls != 0 {
		t.Fatal("expected no extraction when refusing")
	}
	data, _ := os.ReadFile(out)
	if string(data) != "edited by hand" {
		t.Fatalf("draft was modified: %q", data)
	}

	if _, err := svc.Draft(context.Background(), DraftOptions{OutputPath: out, WorkDir: dir, Force: true}, nil); err != nil {
		t.Fatalf("forced Draft: %v", err)
	}
}

func TestDraftPropagatesRunnerFailure(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{}, "", &fakeExtractor{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	_, err := svc.Draft(context.Background(), DraftOptions{OutputPath: filepath.Join(dir, "d.txt")}, nil)
	if err == nil || !strings.Contains(err.Error(), "whisperx") {
		t.Fatalf("expected whisperx error, got %v", err)
	}
}

func TestTranscribeTextJoinsSegments(t *testing.T) {
	svc, extractor, captured := newTestService(t, Config{}, whisperJSON)
	clip := filepath.Join(t.TempDir(), "chunk_000.wav")

	text, err := svc.TranscribeText(context.Background(), clip)
	if err != nil {
		t.Fatalf("TranscribeText: %v", err)
	}
	if text != "Hello there. Welcome to the show." {
		t.Fatalf("unexpected text %q", text)
	}
	if extractor.calls != 0 {
		t.Fatalf("expected clip to be used as-is, got %d extractions", extractor.calls)
	}
	scratch := (*captured)[slices.Index(*captured, "--output_dir")+1]
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir removed, stat err=%v", err)
	}
}

func TestTranscribeTextReportsRunnerFailure(t *testing.T) {
	svc := NewService(Config{}, "", nil)
	boom := errors.New("uvx exploded")
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return boom })
	if _, err := svc.TranscribeText(context.Background(), "clip.wav"); !errors.Is(err, boom) {
		t.Fatalf("expected runner error, got %v", err)
	}
}
