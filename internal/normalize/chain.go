// Package normalize applies the voice loudness filter chain to every MP3 in
// a directory.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"lockbox/internal/config"
)

// BuildFilterChain renders the ffmpeg -filter:a argument: highpass, one
// octave-wide equalizer per band, compand, then loudnorm. Stages with a
// zero value are omitted.
func BuildFilterChain(cfg config.Normalize) string {
	var stages []string
	if cfg.HighpassHz > 0 {
		stages = append(stages, fmt.Sprintf("highpass=f=%d", cfg.HighpassHz))
	}
	for _, band := range cfg.Equalizer {
		if band.FrequencyHz <= 0 {
			continue
		}
		stages = append(stages, fmt.Sprintf("equalizer=f=%d:width_type=o:width=1:g=%s", band.FrequencyHz, formatNumber(band.GainDB)))
	}
	if compand := strings.TrimSpace(cfg.Compand); compand != "" {
		stages = append(stages, "compand="+compand)
	}
	if cfg.LoudnessI != 0 {
		stages = append(stages, fmt.Sprintf("loudnorm=I=%s:TP=%s:LRA=%s",
			formatNumber(cfg.LoudnessI), formatDecimal(cfg.TruePeak), formatNumber(cfg.LoudnessLRA)))
	}
	return strings.Join(stages, ",")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDecimal always keeps a fractional part, e.g. -1 renders as -1.0.
func formatDecimal(v float64) string {
	s := formatNumber(v)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// OptionsFromConfig builds batch options from the normalize section.
func OptionsFromConfig(cfg config.Normalize) Options {
	return Options{
		InputDir:   cfg.InputDir,
		OutputDir:  cfg.OutputDir,
		Chain:      BuildFilterChain(cfg),
		SampleRate: cfg.SampleRate,
		Jobs:       cfg.Jobs,
	}
}
