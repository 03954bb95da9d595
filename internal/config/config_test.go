package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"lockbox/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_STATE_HOME", "")
	workDir := t.TempDir()
	t.Chdir(workDir)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(workDir, "www", "audio")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.SequenceOutput != filepath.Join(workDir, "www", "show_sequence.json") {
		t.Fatalf("unexpected sequence output: %q", cfg.Paths.SequenceOutput)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, ".local", "state", "lockbox") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.Manifest.Path != filepath.Join(cfg.Paths.StateDir, "manifest.db") {
		t.Fatalf("unexpected manifest path: %q", cfg.Manifest.Path)
	}
	if cfg.Export.Bitrate != "128k" {
		t.Fatalf("unexpected bitrate: %q", cfg.Export.Bitrate)
	}
	if cfg.Sequence.Format != "json" {
		t.Fatalf("unexpected sequence format: %q", cfg.Sequence.Format)
	}
	if got := cfg.Speakers.Tags["Box1"]; got != "kristine" {
		t.Fatalf("expected Box1 to map to kristine, got %q", got)
	}
	names := cfg.SpeakerNames()
	want := []string{"jacob", "kristine", "sam"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected speaker names: %v", names)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, filepath.Dir(cfg.Paths.SequenceOutput)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lockbox.toml")

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Speakers struct {
			Tags map[string]string `toml:"tags"`
		} `toml:"speakers"`
		Export struct {
			Bitrate string `toml:"bitrate"`
		} `toml:"export"`
		Sequence struct {
			Format string `toml:"format"`
		} `toml:"sequence"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "tracks")
	custom.Speakers.Tags = map[string]string{" Left ": " Elf ", "Right": "Reindeer"}
	custom.Export.Bitrate = " 192K "
	custom.Sequence.Format = "yml"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempDir, "tracks") {
		t.Fatalf("expected output dir override, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Speakers.Tags["Left"] != "elf" || cfg.Speakers.Tags["Right"] != "reindeer" {
		t.Fatalf("expected trimmed, lower-cased speaker tags, got %v", cfg.Speakers.Tags)
	}
	if _, ok := cfg.Speakers.Tags["Box1"]; ok {
		t.Fatal("expected custom speaker map to replace defaults")
	}
	if cfg.Export.Bitrate != "192k" {
		t.Fatalf("expected normalized bitrate, got %q", cfg.Export.Bitrate)
	}
	if cfg.Sequence.Format != "yaml" {
		t.Fatalf("expected yml alias to normalize to yaml, got %q", cfg.Sequence.Format)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "lockbox.toml")
	if err := os.WriteFile(configPath, []byte("[paths\noutput_dir = 3"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), `Box1 = "kristine"`) {
		t.Fatalf("sample config missing speaker map: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if len(cfg.Normalize.Equalizer) != 3 {
		t.Fatalf("expected three equalizer bands in sample, got %d", len(cfg.Normalize.Equalizer))
	}

	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if loaded.Normalize.LoudnessI != -14 {
		t.Fatalf("unexpected loudness target: %v", loaded.Normalize.LoudnessI)
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	cfg := config.Default()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode encoded config: %v", err)
	}
	if decoded.Speakers.Tags["Box3"] != "sam" {
		t.Fatalf("expected speaker map to survive encoding, got %v", decoded.Speakers.Tags)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty speaker map", func(c *config.Config) { c.Speakers.Tags = map[string]string{} }},
		{"reserved speaker", func(c *config.Config) { c.Speakers.Tags["Box4"] = "unknown" }},
		{"speaker with separator", func(c *config.Config) { c.Speakers.Tags["Box4"] = "../sam" }},
		{"bad bitrate", func(c *config.Config) { c.Export.Bitrate = "fast" }},
		{"bad sequence format", func(c *config.Config) { c.Sequence.Format = "xml" }},
		{"negative jobs", func(c *config.Config) { c.Normalize.Jobs = -1 }},
		{"positive loudness", func(c *config.Config) { c.Normalize.LoudnessI = 3 }},
		{"zero equalizer frequency", func(c *config.Config) { c.Normalize.Equalizer[0].FrequencyHz = 0 }},
		{"negative keep silence", func(c *config.Config) { c.Chunker.KeepSilenceMs = -5 }},
		{"white threshold out of range", func(c *config.Config) { c.Images.WhiteThreshold = 255 }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "trace" }},
		{"missing transcript", func(c *config.Config) { c.Paths.Transcript = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadSpeakerTagsReplaceDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "lockbox.toml")
	content := "[speakers.tags]\nLeft = \"elf\"\nRight = \"reindeer\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Speakers.Tags) != 2 {
		t.Fatalf("expected only configured tags, got %v", cfg.Speakers.Tags)
	}
	names := cfg.SpeakerNames()
	if strings.Join(names, ",") != "elf,reindeer" {
		t.Fatalf("expected two speakers, got %v", names)
	}
	if strings.Join(cfg.Images.Transparent, ",") != "toys.png,tools.png,claw.png" {
		t.Fatalf("expected default sprites, got %v", cfg.Images.Transparent)
	}
}

func TestLoadSpriteListReplacesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "lockbox.toml")
	content := `[images]
transparent = ["elf.png"]
white_threshold = 230
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Images.Transparent) != 1 || cfg.Images.Transparent[0] != "elf.png" {
		t.Fatalf("expected configured sprite list, got %v", cfg.Images.Transparent)
	}
	if cfg.Images.WhiteThreshold != 230 {
		t.Fatalf("expected threshold override, got %d", cfg.Images.WhiteThreshold)
	}
}

func TestLoadWithoutSpeakerTagsKeepsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "lockbox.toml")
	if err := os.WriteFile(configPath, []byte("[export]\nbitrate = \"192k\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if strings.Join(cfg.SpeakerNames(), ",") != "jacob,kristine,sam" {
		t.Fatalf("expected default speakers, got %v", cfg.SpeakerNames())
	}
	if cfg.Speakers.Tags["Box1"] != "kristine" {
		t.Fatalf("expected default Box1 tag, got %v", cfg.Speakers.Tags)
	}
}
