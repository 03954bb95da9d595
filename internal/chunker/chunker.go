// Package chunker splits the narration into speech chunks separated by
// silence, exporting each chunk as a WAV file with a JSON index of absolute
// offsets.
package chunker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"lockbox/internal/config"
	"lockbox/internal/fileutil"
	"lockbox/internal/logging"
	"lockbox/internal/pcm"
)

// Decoder loads the narration. *ffmpeg.Client satisfies it.
type Decoder interface {
	Describe(ctx context.Context, path string) (pcm.Format, int, error)
	DecodeAs(ctx context.Context, path string, format pcm.Format) (*pcm.Buffer, error)
}

// Transcriber turns an exported chunk into text. *whisperx.Service
// satisfies it.
type Transcriber interface {
	TranscribeText(ctx context.Context, wavPath string) (string, error)
}

// Chunk is one entry of the index file.
type Chunk struct {
	ID       int    `json:"id"`
	StartMs  int    `json:"start_ms"`
	EndMs    int    `json:"end_ms"`
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// Options configure a chunking run.
type Options struct {
	SourcePath      string
	OutputDir       string
	IndexPath       string
	MinSilenceMs    int
	SilenceOffsetDB float64
	KeepSilenceMs   int
	// Transcriber fills Chunk.Text when set. A chunk that fails to
	// transcribe keeps empty text.
	Transcriber Transcriber
}

// OptionsFromConfig builds chunking options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SourcePath:      cfg.Paths.SourceAudio,
		OutputDir:       cfg.Chunker.OutputDir,
		IndexPath:       cfg.Chunker.IndexPath,
		MinSilenceMs:    cfg.Chunker.MinSilenceMs,
		SilenceOffsetDB: cfg.Chunker.SilenceOffsetDB,
		KeepSilenceMs:   cfg.Chunker.KeepSilenceMs,
	}
}

// Result summarizes a run.
type Result struct {
	Chunks        []Chunk
	ThresholdDBFS float64
	DurationMs    int
}

// Run decodes the narration as mono, detects speech ranges and writes the
// chunk files and index.
func Run(ctx context.Context, opts Options, decoder Decoder, logger *slog.Logger) (*Result, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "chunker"))

	format, _, err := decoder.Describe(ctx, opts.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("inspect narration: %w", err)
	}
	format.Channels = 1
	logger.Info("loading narration", logging.String("path", opts.SourcePath))
	buf, err := decoder.DecodeAs(ctx, opts.SourcePath, format)
	if err != nil {
		return nil, fmt.Errorf("load narration: %w", err)
	}

	duration := buf.DurationMs()
	threshold := buf.OverallDBFS() - opts.SilenceOffsetDB
	logger.Info("detecting non-silent ranges",
		logging.Int("duration_ms", duration),
		logging.Float64("threshold_dbfs", roundDB(threshold)),
		logging.Int("min_silence_ms", opts.MinSilenceMs),
	)
	ranges := Pad(DetectNonSilent(buf, opts.MinSilenceMs, threshold), opts.KeepSilenceMs, duration)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk directory: %w", err)
	}
	if err := removeStaleChunks(opts.OutputDir); err != nil {
		return nil, err
	}

	result := &Result{ThresholdDBFS: threshold, DurationMs: duration, Chunks: make([]Chunk, 0, len(ranges))}
	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := fmt.Sprintf("chunk_%03d.wav", i)
		chunkPath := filepath.Join(opts.OutputDir, name)
		if err := WriteWAV(chunkPath, buf.Slice(r.StartMs, r.EndMs)); err != nil {
			return nil, err
		}
		chunk := Chunk{ID: i, StartMs: r.StartMs, EndMs: r.EndMs, Filename: name}
		logger.Debug("exported chunk",
			logging.String("file", name),
			logging.Int("start_ms", r.StartMs),
			logging.Int("end_ms", r.EndMs),
		)
		if opts.Transcriber != nil {
			text, err := opts.Transcriber.TranscribeText(ctx, chunkPath)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if err != nil {
				logging.WarnWithContext(logger, "chunk transcription failed", "chunk_transcription_failed",
					logging.String("file", name),
					logging.String(logging.FieldImpact, "chunk text left empty"),
					logging.Error(err),
				)
			} else {
				chunk.Text = text
				logger.Info("transcribed chunk", logging.Int("chunk", i), logging.String("text", text))
			}
		}
		result.Chunks = append(result.Chunks, chunk)
	}

	if err := WriteIndex(opts.IndexPath, result.Chunks); err != nil {
		return nil, err
	}
	logger.Info("saved chunk index",
		logging.String("path", opts.IndexPath),
		logging.Int("chunks", len(result.Chunks)),
	)
	return result, nil
}

// WriteIndex writes chunks as an indented JSON array.
func WriteIndex(path string, chunks []Chunk) error {
	if chunks == nil {
		chunks = []Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chunk index: %w", err)
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

func removeStaleChunks(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "chunk_*.wav"))
	if err != nil {
		return fmt.Errorf("list stale chunks: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("remove stale chunk: %w", err)
		}
	}
	return nil
}

func roundDB(v float64) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}
