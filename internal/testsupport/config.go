package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lockbox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every input and output path lives under one temp root.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceAudio = filepath.Join(base, "Audio", "narration.mp3")
	cfgVal.Paths.Transcript = filepath.Join(base, "manual_transcript.txt")
	cfgVal.Paths.OutputDir = filepath.Join(base, "www", "audio")
	cfgVal.Paths.SequenceOutput = filepath.Join(base, "www", "show_sequence.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Normalize.InputDir = filepath.Join(base, "www", "audio")
	cfgVal.Normalize.OutputDir = filepath.Join(base, "www", "audio_norm")
	cfgVal.Firmware.SourceDir = filepath.Join(base, "Audio")
	cfgVal.Firmware.HeaderPath = filepath.Join(base, "audio_assets.h")
	cfgVal.Embed.HTMLPath = filepath.Join(base, "www", "index.html")
	cfgVal.Embed.OutputPath = filepath.Join(base, "www", "index_embedded.html")
	cfgVal.Embed.AssetsDir = filepath.Join(base, "www")
	cfgVal.Chunker.OutputDir = filepath.Join(base, "temp_chunks")
	cfgVal.Chunker.IndexPath = filepath.Join(base, "transcript_chunks.json")
	cfgVal.Images.AssetsDir = filepath.Join(base, "www", "assets")
	cfgVal.Transcribe.OutputPath = filepath.Join(base, "transcript_draft.txt")
	cfgVal.Transcribe.WorkDir = filepath.Join(base, "temp_transcribe")
	cfgVal.Manifest.Path = filepath.Join(base, "state", "manifest.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSpeakerTags replaces the transcript tag mapping on the test config.
func WithSpeakerTags(tags map[string]string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Speakers.Tags = tags
	}
}

// WithManifest enables the generated-output manifest.
func WithManifest() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Manifest.Enabled = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
