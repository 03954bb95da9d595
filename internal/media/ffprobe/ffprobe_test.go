package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "data"},
			{CodecType: "audio", SampleRate: "44100", Channels: 2, Duration: "4.000"},
		},
		Format: Format{Duration: "4.0126", BitRate: "128000"},
	}
	stream, err := result.AudioStream()
	if err != nil {
		t.Fatalf("AudioStream returned error: %v", err)
	}
	if stream.SampleRateHz() != 44100 || stream.Channels != 2 {
		t.Fatalf("unexpected audio stream: %+v", stream)
	}
	if result.DurationMs() != 4013 {
		t.Fatalf("unexpected duration: %d", result.DurationMs())
	}
	if result.BitRate() != 128000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleMissingValues(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", SampleRate: "bad", Duration: "2.5"}},
		Format:  Format{Duration: "nope", BitRate: "-1"},
	}
	stream, _ := result.AudioStream()
	if stream.SampleRateHz() != 0 {
		t.Fatalf("expected sample rate 0, got %d", stream.SampleRateHz())
	}
	if result.DurationMs() != 2500 {
		t.Fatalf("expected stream duration fallback, got %d", result.DurationMs())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
	if _, err := (Result{}).AudioStream(); !errors.Is(err, ErrNoAudioStream) {
		t.Fatalf("expected ErrNoAudioStream, got %v", err)
	}
}

func TestInspectParsesOutput(t *testing.T) {
	stubCommand(t, "success")
	result, err := Inspect(context.Background(), "", "/audio/narration.mp3")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	stream, err := result.AudioStream()
	if err != nil {
		t.Fatalf("AudioStream returned error: %v", err)
	}
	if stream.CodecName != "mp3" || stream.SampleRateHz() != 48000 || stream.Channels != 1 {
		t.Fatalf("unexpected stream: %+v", stream)
	}
	if result.DurationMs() != 4000 {
		t.Fatalf("unexpected duration: %d", result.DurationMs())
	}
}

func TestInspectReportsFailure(t *testing.T) {
	stubCommand(t, "failure")
	_, err := Inspect(context.Background(), "ffprobe", "/audio/missing.mp3")
	if err == nil {
		t.Fatal("expected error")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected wrapped exit error, got %v", err)
	}
}

func TestInspectRequiresPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func stubCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFPROBE_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFPROBE_HELPER_MODE") {
	case "success":
		fmt.Println(`{"streams":[{"index":0,"codec_name":"mp3","codec_type":"audio","sample_rate":"48000","channels":1}],"format":{"format_name":"mp3","duration":"4.000000"}}`)
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "No such file or directory")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
