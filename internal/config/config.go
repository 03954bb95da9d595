package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the show assembler inputs and outputs.
type Paths struct {
	SourceAudio    string `toml:"source_audio"`
	Transcript     string `toml:"transcript"`
	OutputDir      string `toml:"output_dir"`
	SequenceOutput string `toml:"sequence_output"`
	LogDir         string `toml:"log_dir"`
	StateDir       string `toml:"state_dir"`
}

// Speakers maps raw transcript tags (e.g. "Box1") to canonical speaker names.
type Speakers struct {
	Tags map[string]string `toml:"tags"`
}

// Transcript controls transcript parsing behaviour.
type Transcript struct {
	// Strict aborts a run on the first malformed block instead of skipping it.
	Strict bool `toml:"strict"`
}

// Export contains settings for the per-speaker track files.
type Export struct {
	Bitrate    string `toml:"bitrate"`
	FilePrefix string `toml:"file_prefix"`
	Codec      string `toml:"codec"`
}

// Sequence controls how the lighting sequence is persisted.
type Sequence struct {
	Format string `toml:"format"`
}

// EQBand describes one octave-wide peaking equalizer stage.
type EQBand struct {
	FrequencyHz int     `toml:"frequency_hz"`
	GainDB      float64 `toml:"gain_db"`
}

// Normalize contains the loudness normalization filter chain settings.
type Normalize struct {
	InputDir    string   `toml:"input_dir"`
	OutputDir   string   `toml:"output_dir"`
	SampleRate  int      `toml:"sample_rate"`
	Jobs        int      `toml:"jobs"`
	HighpassHz  int      `toml:"highpass_hz"`
	Equalizer   []EQBand `toml:"equalizer"`
	Compand     string   `toml:"compand"`
	LoudnessI   float64  `toml:"loudness_i"`
	TruePeak    float64  `toml:"true_peak"`
	LoudnessLRA float64  `toml:"loudness_lra"`
}

// Firmware contains settings for the microcontroller audio header.
type Firmware struct {
	SourceDir    string `toml:"source_dir"`
	HeaderPath   string `toml:"header_path"`
	IncludeGuard string `toml:"include_guard"`
}

// Embed contains settings for base64 asset embedding into HTML pages.
type Embed struct {
	HTMLPath   string            `toml:"html_path"`
	OutputPath string            `toml:"output_path"`
	AssetsDir  string            `toml:"assets_dir"`
	Assets     map[string]string `toml:"assets"`
}

// Chunker contains settings for narration chunk detection.
type Chunker struct {
	OutputDir       string  `toml:"output_dir"`
	IndexPath       string  `toml:"index_path"`
	MinSilenceMs    int     `toml:"min_silence_ms"`
	SilenceOffsetDB float64 `toml:"silence_offset_db"`
	KeepSilenceMs   int     `toml:"keep_silence_ms"`
	// Transcribe runs WhisperX on every chunk to fill the index text.
	Transcribe      bool    `toml:"transcribe"`
}

// Images contains settings for mini-game sprite preparation.
type Images struct {
	AssetsDir      string   `toml:"assets_dir"`
	// Transparent lists sprites, relative to AssetsDir, whose near-white
	// background is cleared.
	Transparent    []string `toml:"transparent"`
	WhiteThreshold int      `toml:"white_threshold"`
}

// Transcribe contains WhisperX settings for draft transcripts.
type Transcribe struct {
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	OutputPath     string `toml:"output_path"`
	WorkDir        string `toml:"work_dir"`
	PlaceholderTag string `toml:"placeholder_tag"`
}

// Manifest contains settings for the generated-output manifest database.
type Manifest struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lockbox.
//
// Configuration sections by subsystem:
//   - Paths: narration, transcript, and show output locations
//   - Speakers: transcript tag to character mapping
//   - Transcript: parser strictness
//   - Export: per-character track encoding
//   - Sequence: lighting sequence file format
//   - Normalize: loudness filter chain
//   - Firmware: microcontroller header generation
//   - Embed: HTML asset embedding
//   - Chunker: narration chunk detection
//   - Transcribe: WhisperX draft transcripts
//   - Manifest: record of generated outputs
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Speakers   Speakers   `toml:"speakers"`
	Transcript Transcript `toml:"transcript"`
	Export     Export     `toml:"export"`
	Sequence   Sequence   `toml:"sequence"`
	Normalize  Normalize  `toml:"normalize"`
	Firmware   Firmware   `toml:"firmware"`
	Embed      Embed      `toml:"embed"`
	Chunker    Chunker    `toml:"chunker"`
	Images     Images     `toml:"images"`
	Transcribe Transcribe `toml:"transcribe"`
	Manifest   Manifest   `toml:"manifest"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lockbox/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// go-toml merges into existing maps; configured tables and lists must
		// replace the defaults, which normalize restores when absent.
		cfg.Speakers.Tags = nil
		cfg.Images.Transparent = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/lockbox/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lockbox.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into. The show
// output directory is created on demand; a missing one is never an error.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, filepath.Dir(c.Paths.SequenceOutput)}
	if c.Paths.LogDir != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	if c.Manifest.Enabled {
		dirs = append(dirs, filepath.Dir(c.Manifest.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SpeakerNames returns the canonical speaker names in sorted order.
func (c *Config) SpeakerNames() []string {
	seen := make(map[string]struct{}, len(c.Speakers.Tags))
	names := make([]string, 0, len(c.Speakers.Tags))
	for _, name := range c.Speakers.Tags {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "lockbox")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/state/lockbox"
	}
	return filepath.Join(home, ".local", "state", "lockbox")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
