package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSpeakers()
	c.normalizeExport()
	c.normalizeSequence()
	if err := c.normalizeUtilities(); err != nil {
		return err
	}
	if err := c.normalizeManifest(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceAudio, err = expandPath(strings.TrimSpace(c.Paths.SourceAudio)); err != nil {
		return fmt.Errorf("paths.source_audio: %w", err)
	}
	if c.Paths.Transcript, err = expandPath(strings.TrimSpace(c.Paths.Transcript)); err != nil {
		return fmt.Errorf("paths.transcript: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SequenceOutput) == "" {
		c.Paths.SequenceOutput = defaultSequenceOutput
	}
	if c.Paths.SequenceOutput, err = expandPath(strings.TrimSpace(c.Paths.SequenceOutput)); err != nil {
		return fmt.Errorf("paths.sequence_output: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSpeakers() {
	if len(c.Speakers.Tags) == 0 {
		c.Speakers.Tags = DefaultSpeakerTags()
		return
	}
	tags := make(map[string]string, len(c.Speakers.Tags))
	for tag, name := range c.Speakers.Tags {
		tag = strings.TrimSpace(tag)
		name = strings.ToLower(strings.TrimSpace(name))
		if tag == "" {
			continue
		}
		tags[tag] = name
	}
	c.Speakers.Tags = tags
}

func (c *Config) normalizeExport() {
	c.Export.Bitrate = strings.ToLower(strings.TrimSpace(c.Export.Bitrate))
	if c.Export.Bitrate == "" {
		c.Export.Bitrate = defaultBitrate
	}
	c.Export.FilePrefix = strings.TrimSpace(c.Export.FilePrefix)
	if c.Export.FilePrefix == "" {
		c.Export.FilePrefix = defaultFilePrefix
	}
	c.Export.Codec = strings.TrimSpace(c.Export.Codec)
	if c.Export.Codec == "" {
		c.Export.Codec = defaultCodec
	}
}

func (c *Config) normalizeSequence() {
	c.Sequence.Format = strings.ToLower(strings.TrimSpace(c.Sequence.Format))
	switch c.Sequence.Format {
	case "", "json":
		c.Sequence.Format = "json"
	case "yml":
		c.Sequence.Format = "yaml"
	}
}

func (c *Config) normalizeUtilities() error {
	var err error
	if c.Normalize.InputDir, err = expandOrDefault(c.Normalize.InputDir, defaultNormalizeInput); err != nil {
		return fmt.Errorf("normalize.input_dir: %w", err)
	}
	if c.Normalize.OutputDir, err = expandOrDefault(c.Normalize.OutputDir, defaultNormalizeOutput); err != nil {
		return fmt.Errorf("normalize.output_dir: %w", err)
	}
	if c.Normalize.SampleRate <= 0 {
		c.Normalize.SampleRate = defaultNormalizeRate
	}
	if c.Normalize.Jobs == 0 {
		c.Normalize.Jobs = defaultNormalizeJobs
	}
	c.Normalize.Compand = strings.TrimSpace(c.Normalize.Compand)

	if c.Firmware.SourceDir, err = expandOrDefault(c.Firmware.SourceDir, defaultFirmwareSource); err != nil {
		return fmt.Errorf("firmware.source_dir: %w", err)
	}
	if c.Firmware.HeaderPath, err = expandOrDefault(c.Firmware.HeaderPath, defaultFirmwareHeader); err != nil {
		return fmt.Errorf("firmware.header_path: %w", err)
	}
	c.Firmware.IncludeGuard = strings.ToUpper(strings.TrimSpace(c.Firmware.IncludeGuard))
	if c.Firmware.IncludeGuard == "" {
		c.Firmware.IncludeGuard = defaultIncludeGuard
	}

	if c.Embed.HTMLPath, err = expandPath(strings.TrimSpace(c.Embed.HTMLPath)); err != nil {
		return fmt.Errorf("embed.html_path: %w", err)
	}
	if c.Embed.OutputPath, err = expandPath(strings.TrimSpace(c.Embed.OutputPath)); err != nil {
		return fmt.Errorf("embed.output_path: %w", err)
	}
	if c.Embed.AssetsDir, err = expandPath(strings.TrimSpace(c.Embed.AssetsDir)); err != nil {
		return fmt.Errorf("embed.assets_dir: %w", err)
	}
	if c.Embed.AssetsDir == "" && c.Embed.HTMLPath != "" {
		c.Embed.AssetsDir = filepath.Dir(c.Embed.HTMLPath)
	}

	if c.Chunker.OutputDir, err = expandOrDefault(c.Chunker.OutputDir, defaultChunkOutputDir); err != nil {
		return fmt.Errorf("chunker.output_dir: %w", err)
	}
	if c.Chunker.IndexPath, err = expandOrDefault(c.Chunker.IndexPath, defaultChunkIndexPath); err != nil {
		return fmt.Errorf("chunker.index_path: %w", err)
	}
	if c.Chunker.MinSilenceMs <= 0 {
		c.Chunker.MinSilenceMs = defaultMinSilenceMs
	}
	if c.Chunker.SilenceOffsetDB == 0 {
		c.Chunker.SilenceOffsetDB = defaultSilenceOffsetDB
	}

	if c.Images.AssetsDir, err = expandOrDefault(c.Images.AssetsDir, defaultImageAssetsDir); err != nil {
		return fmt.Errorf("images.assets_dir: %w", err)
	}
	sprites := make([]string, 0, len(c.Images.Transparent))
	for _, name := range c.Images.Transparent {
		if name = strings.TrimSpace(name); name != "" {
			sprites = append(sprites, name)
		}
	}
	if len(sprites) == 0 {
		sprites = DefaultTransparentSprites()
	}
	c.Images.Transparent = sprites
	if c.Images.WhiteThreshold == 0 {
		c.Images.WhiteThreshold = defaultWhiteThreshold
	}

	c.Transcribe.Model = strings.TrimSpace(c.Transcribe.Model)
	if c.Transcribe.Model == "" {
		c.Transcribe.Model = defaultWhisperXModel
	}
	c.Transcribe.Language = strings.ToLower(strings.TrimSpace(c.Transcribe.Language))
	if c.Transcribe.OutputPath, err = expandOrDefault(c.Transcribe.OutputPath, defaultDraftTranscript); err != nil {
		return fmt.Errorf("transcribe.output_path: %w", err)
	}
	if c.Transcribe.WorkDir, err = expandOrDefault(c.Transcribe.WorkDir, defaultTranscribeWork); err != nil {
		return fmt.Errorf("transcribe.work_dir: %w", err)
	}
	c.Transcribe.PlaceholderTag = strings.Trim(strings.TrimSpace(c.Transcribe.PlaceholderTag), "[]")
	if c.Transcribe.PlaceholderTag == "" {
		c.Transcribe.PlaceholderTag = defaultPlaceholderTag
	}
	return nil
}

func (c *Config) normalizeManifest() error {
	var err error
	if strings.TrimSpace(c.Manifest.Path) == "" {
		c.Manifest.Path = filepath.Join(c.Paths.StateDir, defaultManifestFileName)
	}
	if c.Manifest.Path, err = expandPath(strings.TrimSpace(c.Manifest.Path)); err != nil {
		return fmt.Errorf("manifest.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandOrDefault(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	return expandPath(value)
}
