package config

const (
	defaultSourceAudio      = "Audio/narration.mp3"
	defaultTranscript       = "manual_transcript.txt"
	defaultOutputDir        = "www/audio"
	defaultSequenceOutput   = "www/show_sequence.json"
	defaultBitrate          = "128k"
	defaultFilePrefix       = "Finale"
	defaultCodec            = "libmp3lame"
	defaultSequenceFormat   = "json"
	defaultNormalizeInput   = "www/audio"
	defaultNormalizeOutput  = "www/audio_norm"
	defaultNormalizeRate    = 44100
	defaultNormalizeJobs    = 1
	defaultHighpassHz       = 250
	defaultCompand          = "attacks=0.01:decays=0.1:points=-80/-80|-15/-15|0/-3:gain=0"
	defaultLoudnessI        = -14.0
	defaultTruePeak         = -1.0
	defaultLoudnessLRA      = 11.0
	defaultFirmwareSource   = "Audio"
	defaultFirmwareHeader   = "audio_assets.h"
	defaultIncludeGuard     = "AUDIO_ASSETS_H"
	defaultChunkOutputDir   = "temp_chunks"
	defaultChunkIndexPath   = "transcript_chunks.json"
	defaultMinSilenceMs     = 700
	defaultSilenceOffsetDB  = 14.0
	defaultKeepSilenceMs    = 200
	defaultImageAssetsDir   = "www/assets/toy_factory"
	defaultWhiteThreshold   = 240
	defaultWhisperXModel    = "base"
	defaultLanguage         = "en"
	defaultDraftTranscript  = "transcript_draft.txt"
	defaultTranscribeWork   = "temp_transcribe"
	defaultPlaceholderTag   = "Unassigned"
	defaultManifestFileName = "manifest.db"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// DefaultSpeakerTags is the box-to-character mapping used by the show.
func DefaultSpeakerTags() map[string]string {
	return map[string]string{
		"Box1": "kristine",
		"Box2": "jacob",
		"Box3": "sam",
	}
}

// DefaultEqualizer returns the vocal presence equalizer bands.
func DefaultEqualizer() []EQBand {
	return []EQBand{
		{FrequencyHz: 850, GainDB: 2},
		{FrequencyHz: 3000, GainDB: 4},
		{FrequencyHz: 6000, GainDB: 2},
	}
}

// DefaultTransparentSprites lists the toy factory sprites drawn over the
// background.
func DefaultTransparentSprites() []string {
	return []string{"toys.png", "tools.png", "claw.png"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceAudio:    defaultSourceAudio,
			Transcript:     defaultTranscript,
			OutputDir:      defaultOutputDir,
			SequenceOutput: defaultSequenceOutput,
			StateDir:       defaultStateDir(),
		},
		Speakers: Speakers{
			Tags: DefaultSpeakerTags(),
		},
		Export: Export{
			Bitrate:    defaultBitrate,
			FilePrefix: defaultFilePrefix,
			Codec:      defaultCodec,
		},
		Sequence: Sequence{
			Format: defaultSequenceFormat,
		},
		Normalize: Normalize{
			InputDir:    defaultNormalizeInput,
			OutputDir:   defaultNormalizeOutput,
			SampleRate:  defaultNormalizeRate,
			Jobs:        defaultNormalizeJobs,
			HighpassHz:  defaultHighpassHz,
			Equalizer:   DefaultEqualizer(),
			Compand:     defaultCompand,
			LoudnessI:   defaultLoudnessI,
			TruePeak:    defaultTruePeak,
			LoudnessLRA: defaultLoudnessLRA,
		},
		Firmware: Firmware{
			SourceDir:    defaultFirmwareSource,
			HeaderPath:   defaultFirmwareHeader,
			IncludeGuard: defaultIncludeGuard,
		},
		Chunker: Chunker{
			OutputDir:       defaultChunkOutputDir,
			IndexPath:       defaultChunkIndexPath,
			MinSilenceMs:    defaultMinSilenceMs,
			SilenceOffsetDB: defaultSilenceOffsetDB,
			KeepSilenceMs:   defaultKeepSilenceMs,
		},
		Images: Images{
			AssetsDir:      defaultImageAssetsDir,
			Transparent:    DefaultTransparentSprites(),
			WhiteThreshold: defaultWhiteThreshold,
		},
		Transcribe: Transcribe{
			Model:          defaultWhisperXModel,
			Language:       defaultLanguage,
			OutputPath:     defaultDraftTranscript,
			WorkDir:        defaultTranscribeWork,
			PlaceholderTag: defaultPlaceholderTag,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
