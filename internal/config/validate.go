package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var bitratePattern = regexp.MustCompile(`^[1-9][0-9]*k?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSpeakers(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateSequence(); err != nil {
		return err
	}
	if err := c.validateNormalize(); err != nil {
		return err
	}
	if err := c.validateChunker(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SourceAudio) == "" {
		return errors.New("paths.source_audio must be set")
	}
	if strings.TrimSpace(c.Paths.Transcript) == "" {
		return errors.New("paths.transcript must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.SequenceOutput) == "" {
		return errors.New("paths.sequence_output must be set")
	}
	return nil
}

func (c *Config) validateSpeakers() error {
	if len(c.Speakers.Tags) == 0 {
		return errors.New("speakers.tags must map at least one transcript tag")
	}
	for tag, name := range c.Speakers.Tags {
		if name == "" {
			return fmt.Errorf("speakers.tags.%s must name a speaker", tag)
		}
		if name == "unknown" {
			return fmt.Errorf("speakers.tags.%s: %q is reserved for unmapped tags", tag, name)
		}
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("speakers.tags.%s: speaker %q must not contain path separators", tag, name)
		}
	}
	return nil
}

func (c *Config) validateExport() error {
	if !bitratePattern.MatchString(c.Export.Bitrate) {
		return fmt.Errorf("export.bitrate %q must look like 128k", c.Export.Bitrate)
	}
	if strings.ContainsAny(c.Export.FilePrefix, `/\`) {
		return errors.New("export.file_prefix must not contain path separators")
	}
	return nil
}

func (c *Config) validateSequence() error {
	switch c.Sequence.Format {
	case "json", "yaml":
		return nil
	default:
		return fmt.Errorf("sequence.format %q must be json or yaml", c.Sequence.Format)
	}
}

func (c *Config) validateNormalize() error {
	if c.Normalize.Jobs < 0 {
		return errors.New("normalize.jobs must be positive")
	}
	if c.Normalize.HighpassHz < 0 {
		return errors.New("normalize.highpass_hz must be >= 0")
	}
	for i, band := range c.Normalize.Equalizer {
		if band.FrequencyHz <= 0 {
			return fmt.Errorf("normalize.equalizer[%d].frequency_hz must be positive", i)
		}
	}
	if c.Normalize.LoudnessI > 0 || c.Normalize.LoudnessI < -70 {
		return errors.New("normalize.loudness_i must be between -70 and 0 LUFS")
	}
	if c.Normalize.TruePeak > 0 || c.Normalize.TruePeak < -9 {
		return errors.New("normalize.true_peak must be between -9 and 0 dBTP")
	}
	if c.Normalize.LoudnessLRA < 1 || c.Normalize.LoudnessLRA > 50 {
		return errors.New("normalize.loudness_lra must be between 1 and 50")
	}
	return nil
}

func (c *Config) validateChunker() error {
	if c.Chunker.KeepSilenceMs < 0 {
		return errors.New("chunker.keep_silence_ms must be >= 0")
	}
	if c.Chunker.SilenceOffsetDB < 0 {
		return errors.New("chunker.silence_offset_db must be >= 0")
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.WhiteThreshold < 0 || c.Images.WhiteThreshold > 254 {
		return fmt.Errorf("images.white_threshold %d must be between 0 and 254", c.Images.WhiteThreshold)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
