package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lockbox/internal/chunker"
	"lockbox/internal/config"
	"lockbox/internal/deps"
	"lockbox/internal/fileutil"
	"lockbox/internal/manifest"
	"lockbox/internal/media/ffmpeg"
	"lockbox/internal/whisperx"
)

func newChunkCommand(ctx *commandContext) *cobra.Command {
	var source, outputDir string
	var minSilence, keepSilence int
	var offset float64
	var transcribe bool

	cmd := &cobra.Command{
		Use:   "chunk",
		Short: "Split the narration into speech chunks at silences",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts := chunker.OptionsFromConfig(cfg)
			if v := strings.TrimSpace(source); v != "" {
				if opts.SourcePath, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			if v := strings.TrimSpace(outputDir); v != "" {
				if opts.OutputDir, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("min-silence") {
				opts.MinSilenceMs = minSilence
			}
			if cmd.Flags().Changed("keep-silence") {
				opts.KeepSilenceMs = keepSilence
			}
			if cmd.Flags().Changed("offset") {
				opts.SilenceOffsetDB = offset
			}

			runCtx, stop := runContext(cmd)
			defer stop()

			client := ffmpeg.New(ffmpeg.WithBinary(cfg.FFmpegBinary()), ffmpeg.WithInspectBinary(cfg.FFprobeBinary()))
			if transcribe || cfg.Chunker.Transcribe {
				statuses := deps.CheckBinaries([]deps.Requirement{{Name: "uvx", Command: whisperx.UVXCommand}})
				if missing := deps.MissingRequired(statuses); len(missing) > 0 {
					return fmt.Errorf("chunk transcription requires %s on PATH", strings.Join(missing, ", "))
				}
				opts.Transcriber = whisperx.NewService(whisperx.ConfigFromSettings(cfg.Transcribe), whisperx.UVXCommand, client)
			}
			var result *chunker.Result
			err = withRunLock(opts.OutputDir, func() error {
				var runErr error
				result, runErr = chunker.Run(runCtx, opts, client, logger)
				return runErr
			})
			if err != nil {
				return err
			}

			store, err := openManifest(runCtx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				sourceHash, err := fileutil.HashFile(opts.SourcePath)
				if err != nil {
					return err
				}
				params := fileutil.HashString(fmt.Sprintf("%d|%g|%d", opts.MinSilenceMs, opts.SilenceOffsetDB, opts.KeepSilenceMs))
				if err := store.Record(runCtx, manifest.Entry{
					OutputPath: opts.IndexPath,
					Kind:       manifest.KindChunk,
					InputPath:  opts.SourcePath,
					InputHash:  sourceHash,
					ParamsHash: params,
				}); err != nil {
					return err
				}
			}

			rows := make([][]string, 0, len(result.Chunks))
			for _, c := range result.Chunks {
				rows = append(rows, []string{strconv.Itoa(c.ID), formatMs(c.StartMs), formatMs(c.EndMs), c.Filename, c.Text})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Start", "End", "File", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "Silence threshold %.1f dBFS; wrote %d chunks and %s\n",
				result.ThresholdDBFS, len(result.Chunks), opts.IndexPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Narration audio file (overrides paths.source_audio)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Chunk directory (overrides chunker.output_dir)")
	cmd.Flags().IntVar(&minSilence, "min-silence", 0, "Minimum silence length in ms")
	cmd.Flags().IntVar(&keepSilence, "keep-silence", 0, "Silence kept around each chunk in ms")
	cmd.Flags().Float64Var(&offset, "offset", 0, "Silence threshold below the narration's average loudness, in dB")
	cmd.Flags().BoolVar(&transcribe, "transcribe", false, "Transcribe each chunk with WhisperX (overrides chunker.transcribe)")
	return cmd
}
