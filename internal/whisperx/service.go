package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"lockbox/internal/pcm"
)

// Extractor converts the narration into the WAV WhisperX reads.
// *ffmpeg.Client satisfies it.
type Extractor interface {
	ExtractWAV(ctx context.Context, input, output string, format pcm.Format) error
}

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	uvxBinary     string
	extractor     Extractor
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, uvxBinary string, extractor Extractor) *Service {
	if uvxBinary == "" {
		uvxBinary = UVXCommand
	}
	return &Service{
		cfg:       cfg,
		uvxBinary: uvxBinary,
		extractor: extractor,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// ExtractAudio writes a mono 16 kHz WAV copy of source to dest.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	if s.extractor == nil {
		return fmt.Errorf("extract audio: no extractor configured")
	}
	return s.extractor.ExtractWAV(ctx, source, dest, pcm.Format{SampleRate: SampleRate, Channels: 1})
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// TranscribeFile runs WhisperX on a WAV file and returns the path of the
// JSON result written into outputDir.
func (s *Service) TranscribeFile(ctx context.Context, source, outputDir string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if err := s.run(ctx, s.uvxBinary, s.buildArgs(source, outputDir)...); err != nil {
		return "", fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(outputDir, baseName+".json"), nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
	)

	if lang := isoLanguage(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// isoLanguage reduces a language code such as "en-US" or "eng" to the
// two-letter base WhisperX expects.
func isoLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// TranscribeText runs WhisperX on a short WAV clip and returns its segment
// texts joined by single spaces. Intermediate JSON is written to a scratch
// directory that is removed afterwards.
func (s *Service) TranscribeText(ctx context.Context, wavPath string) (string, error) {
	scratch, err := os.MkdirTemp("", "lockbox-whisperx-*")
	if err != nil {
		return "", fmt.Errorf("transcribe: scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	jsonPath, err := s.TranscribeFile(ctx, wavPath, scratch)
	if err != nil {
		return "", err
	}
	segments, err := LoadSegments(jsonPath)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
