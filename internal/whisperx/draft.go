package whisperx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"lockbox/internal/config"
	"lockbox/internal/fileutil"
	"lockbox/internal/logging"
	"lockbox/internal/transcript"
)

// ErrDraftExists is returned when the draft transcript already exists and
// overwriting was not requested.
var ErrDraftExists = errors.New("draft transcript already exists")

// DraftOptions configure a draft transcription run.
type DraftOptions struct {
	SourcePath     string
	OutputPath     string
	WorkDir        string
	PlaceholderTag string
	Force          bool
}

// DraftOptionsFromConfig builds draft options from the loaded configuration.
func DraftOptionsFromConfig(cfg *config.Config) DraftOptions {
	return DraftOptions{
		SourcePath:     cfg.Paths.SourceAudio,
		OutputPath:     cfg.Transcribe.OutputPath,
		WorkDir:        cfg.Transcribe.WorkDir,
		PlaceholderTag: cfg.Transcribe.PlaceholderTag,
	}
}

// ConfigFromSettings maps the transcribe section onto service settings.
func ConfigFromSettings(cfg config.Transcribe) Config {
	return Config{Model: cfg.Model, Language: cfg.Language, CUDAEnabled: cfg.CUDAEnabled}
}

// DraftResult describes a written draft.
type DraftResult struct {
	OutputPath string
	Segments   int
}

// Draft transcribes the narration and writes an editable transcript whose
// blocks carry the placeholder tag.
func (s *Service) Draft(ctx context.Context, opts DraftOptions, logger *slog.Logger) (*DraftResult, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "transcriber"))

	if opts.OutputPath == "" {
		return nil, fmt.Errorf("draft: output path required")
	}
	if !opts.Force {
		if _, err := os.Stat(opts.OutputPath); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrDraftExists, opts.OutputPath)
		}
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(opts.OutputPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("draft: ensure work dir: %w", err)
	}

	wavPath := filepath.Join(workDir, "narration_16k.wav")
	logger.Info("extracting narration for transcription", logging.String("source", opts.SourcePath))
	if err := s.ExtractAudio(ctx, opts.SourcePath, wavPath); err != nil {
		return nil, fmt.Errorf("draft: %w", err)
	}

	logger.Info("running whisperx", logging.String("model", s.Model()))
	jsonPath, err := s.TranscribeFile(ctx, wavPath, workDir)
	if err != nil {
		return nil, err
	}
	raw, err := LoadSegments(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("draft: load segments: %w", err)
	}

	segments := ToTranscript(raw, opts.PlaceholderTag)
	if len(segments) == 0 {
		logging.WarnWithContext(logger, "whisperx returned no speech", "empty_transcription",
			logging.String(logging.FieldImpact, "draft transcript is empty"),
		)
	}
	if err := fileutil.WriteFileAtomic(opts.OutputPath, []byte(transcript.Render(segments)), 0o644); err != nil {
		return nil, fmt.Errorf("draft: write transcript: %w", err)
	}
	logger.Info("draft transcript written",
		logging.String("path", opts.OutputPath),
		logging.Int("segments", len(segments)),
	)
	return &DraftResult{OutputPath: opts.OutputPath, Segments: len(segments)}, nil
}

// ToTranscript converts WhisperX segments into transcript segments tagged
// with tag. Blank segments are dropped and times round to the millisecond.
func ToTranscript(raw []Segment, tag string) []transcript.Segment {
	if tag == "" {
		tag = "Unassigned"
	}
	out := make([]transcript.Segment, 0, len(raw))
	for _, seg := range raw {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		start := secondsToMs(seg.Start)
		end := max(secondsToMs(seg.End), start)
		out = append(out, transcript.Segment{
			StartMs: start,
			EndMs:   end,
			Speaker: transcript.Unknown,
			Tag:     tag,
			Text:    text,
		})
	}
	return out
}

func secondsToMs(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v * 1000))
}
