package show

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lockbox/internal/config"
	"lockbox/internal/fileutil"
	"lockbox/internal/logging"
	"lockbox/internal/manifest"
	"lockbox/internal/pcm"
	"lockbox/internal/sequence"
	"lockbox/internal/transcript"
)

// Codec decodes the narration and encodes finished tracks.
type Codec interface {
	Decode(ctx context.Context, path string) (*pcm.Buffer, error)
	Encode(ctx context.Context, buf *pcm.Buffer, path string) error
}

// Recorder stores generated outputs. *manifest.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, e manifest.Entry) error
}

// Options are the inputs of one assembler run.
type Options struct {
	SourcePath     string
	TranscriptPath string
	OutputDir      string
	SequencePath   string
	SequenceFormat sequence.Format
	Speakers       transcript.SpeakerMap
	FilePrefix     string
	Bitrate        string
	Strict         bool
}

// OptionsFromConfig maps the loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, errors.New("config is required")
	}
	format, err := sequence.ParseFormat(cfg.Sequence.Format)
	if err != nil {
		return Options{}, err
	}
	speakers := make(transcript.SpeakerMap, len(cfg.Speakers.Tags))
	for tag, name := range cfg.Speakers.Tags {
		speakers[tag] = name
	}
	return Options{
		SourcePath:     cfg.Paths.SourceAudio,
		TranscriptPath: cfg.Paths.Transcript,
		OutputDir:      cfg.Paths.OutputDir,
		SequencePath:   cfg.Paths.SequenceOutput,
		SequenceFormat: format,
		Speakers:       speakers,
		FilePrefix:     cfg.Export.FilePrefix,
		Bitrate:        cfg.Export.Bitrate,
		Strict:         cfg.Transcript.Strict,
	}, nil
}

// SpeakerNames returns the distinct canonical speakers in sorted order.
func (o Options) SpeakerNames() []string {
	seen := make(map[string]struct{}, len(o.Speakers))
	names := make([]string, 0, len(o.Speakers))
	for _, name := range o.Speakers {
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TrackResult describes one exported character track.
type TrackResult struct {
	Speaker    string `json:"speaker"`
	Path       string `json:"path"`
	Segments   int    `json:"segments"`
	SpeakingMs int    `json:"speaking_ms"`
}

// Summary reports what a run produced.
type Summary struct {
	SourceDurationMs int           `json:"source_duration_ms"`
	Blocks           int           `json:"blocks"`
	Segments         int           `json:"segments"`
	Malformed        int           `json:"malformed"`
	Unknown          int           `json:"unknown"`
	Clamped          int           `json:"clamped"`
	Tracks           []TrackResult `json:"tracks"`
	Events           int           `json:"events"`
	SequencePath     string        `json:"sequence_path"`
}

// Assembler runs the full show build.
type Assembler struct {
	opts     Options
	codec    Codec
	recorder Recorder
	logger   *slog.Logger
}

// NewAssembler constructs an Assembler. recorder may be nil.
func NewAssembler(opts Options, codec Codec, recorder Recorder, logger *slog.Logger) *Assembler {
	return &Assembler{
		opts:     opts,
		codec:    codec,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "assembler"),
	}
}

// Run parses the transcript, decodes the narration, exports every track and
// writes the lighting sequence. Output files are replaced wholesale.
func (a *Assembler) Run(ctx context.Context) (*Summary, error) {
	if a.codec == nil {
		return nil, errors.New("assembler: codec is required")
	}
	logger := logging.WithContext(ctx, a.logger)
	speakers := a.opts.SpeakerNames()
	if len(speakers) == 0 {
		return nil, errors.New("assembler: no speakers configured")
	}

	summary := &Summary{SequencePath: a.opts.SequencePath}
	segments, err := a.readTranscript(logger, summary)
	if err != nil {
		return nil, err
	}
	logger.Info("parsed transcript",
		logging.String("path", a.opts.TranscriptPath),
		logging.Int("segments", summary.Segments),
		logging.Int("malformed", summary.Malformed),
	)

	logger.Info("loading narration", logging.String("path", a.opts.SourcePath))
	source, err := a.codec.Decode(ctx, a.opts.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("load narration: %w", err)
	}
	summary.SourceDurationMs = source.DurationMs()

	mix, err := Synthesize(source, segments, speakers, logger)
	if err != nil {
		return nil, err
	}
	summary.Unknown = mix.Unknown
	summary.Events = len(mix.Events)

	perSpeaker := make(map[string]*TrackResult, len(speakers))
	for _, p := range mix.Placements {
		if p.Clamped {
			summary.Clamped++
		}
		tr := perSpeaker[p.Segment.Speaker]
		if tr == nil {
			tr = &TrackResult{Speaker: p.Segment.Speaker}
			perSpeaker[p.Segment.Speaker] = tr
		}
		tr.Segments++
		tr.SpeakingMs += p.EndMs - p.StartMs
	}

	if err := os.MkdirAll(a.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	src := a.origin(logger)
	for _, name := range mix.Speakers() {
		path := filepath.Join(a.opts.OutputDir, TrackFileName(a.opts.FilePrefix, name))
		logger.Info("exporting track",
			logging.String(logging.FieldSpeaker, name),
			logging.String("path", path),
		)
		if err := a.codec.Encode(ctx, mix.Tracks[name], path); err != nil {
			return nil, fmt.Errorf("export %s track: %w", name, err)
		}
		result := TrackResult{Speaker: name, Path: path}
		if tr := perSpeaker[name]; tr != nil {
			result.Segments = tr.Segments
			result.SpeakingMs = tr.SpeakingMs
		}
		summary.Tracks = append(summary.Tracks, result)
		a.record(ctx, logger, manifest.KindTrack, path, src, name)
	}

	if err := sequence.Write(a.opts.SequencePath, a.opts.SequenceFormat, mix.Events); err != nil {
		return nil, err
	}
	logger.Info("sequence saved",
		logging.String("path", a.opts.SequencePath),
		logging.Int("events", len(mix.Events)),
	)
	a.record(ctx, logger, manifest.KindSequence, a.opts.SequencePath, src, string(a.opts.SequenceFormat))

	return summary, nil
}

func (a *Assembler) readTranscript(logger *slog.Logger, summary *Summary) ([]transcript.Segment, error) {
	outcomes, err := transcript.ReadFile(a.opts.TranscriptPath, a.opts.Speakers)
	if err != nil {
		return nil, err
	}
	summary.Blocks = len(outcomes)
	segments := make([]transcript.Segment, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Kind == transcript.OutcomeSkippedMalformed {
			if a.opts.Strict {
				return nil, fmt.Errorf("%s: %w: block %d: %s",
					a.opts.TranscriptPath, transcript.ErrMalformedBlock, outcome.Block, outcome.Reason)
			}
			summary.Malformed++
			logger.Debug("skipping malformed transcript block",
				logging.Int("block", outcome.Block),
				logging.String("reason", outcome.Reason),
			)
			continue
		}
		segments = append(segments, outcome.Segment)
		if outcome.Kind == transcript.OutcomeSegment {
			summary.Segments++
		}
	}
	return segments, nil
}

type origin struct {
	inputPath string
	inputHash string
}

// origin hashes the narration and transcript for manifest entries.
// Hash failures only cost the manifest entry, never the run.
func (a *Assembler) origin(logger *slog.Logger) origin {
	if a.recorder == nil {
		return origin{}
	}
	sourceHash, err := fileutil.HashFile(a.opts.SourcePath)
	if err != nil {
		logging.WarnWithContext(logger, "could not hash narration for manifest", "manifest_hash_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "outputs recorded without an input hash"),
		)
	}
	transcriptHash, err := fileutil.HashFile(a.opts.TranscriptPath)
	if err != nil {
		logging.WarnWithContext(logger, "could not hash transcript for manifest", "manifest_hash_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "outputs recorded without an input hash"),
		)
	}
	combined := ""
	if sourceHash != "" && transcriptHash != "" {
		combined = fileutil.HashString(sourceHash + ":" + transcriptHash)
	}
	return origin{inputPath: a.opts.SourcePath, inputHash: combined}
}

func (a *Assembler) record(ctx context.Context, logger *slog.Logger, kind, path string, p origin, params string) {
	if a.recorder == nil {
		return
	}
	params = strings.Join([]string{params, a.opts.FilePrefix, a.opts.Bitrate}, "|")
	err := a.recorder.Record(ctx, manifest.Entry{
		OutputPath: path,
		Kind:       kind,
		InputPath:  p.inputPath,
		InputHash:  p.inputHash,
		ParamsHash: fileutil.HashString(params),
	})
	if err != nil {
		logging.WarnWithContext(logger, "manifest update failed", "manifest_write_failed",
			logging.String("path", path),
			logging.Error(err),
		)
	}
}
