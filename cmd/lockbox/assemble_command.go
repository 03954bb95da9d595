package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lockbox/internal/config"
	"lockbox/internal/media/ffmpeg"
	"lockbox/internal/preflight"
	"lockbox/internal/sequence"
	"lockbox/internal/show"
)

type assembleFlags struct {
	source     string
	transcript string
	outputDir  string
	sequence   string
	format     string
	prefix     string
	bitrate    string
	strict     bool
	jsonOut    bool
}

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	var flags assembleFlags

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Split the narration into character tracks and write the lighting sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts, err := show.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			if err := flags.apply(&opts, cmd); err != nil {
				return err
			}
			if err := checkAssembleInputs(opts); err != nil {
				return err
			}

			runCtx, stop := runContext(cmd)
			defer stop()

			store, err := openManifest(runCtx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			client := ffmpeg.New(
				ffmpeg.WithBinary(cfg.FFmpegBinary()),
				ffmpeg.WithInspectBinary(cfg.FFprobeBinary()),
				ffmpeg.WithCodec(cfg.Export.Codec),
				ffmpeg.WithBitrate(opts.Bitrate),
			)

			var summary *show.Summary
			err = withRunLock(opts.OutputDir, func() error {
				var recorder show.Recorder
				if store != nil {
					recorder = store
				}
				var runErr error
				summary, runErr = show.NewAssembler(opts, client, recorder, logger).Run(runCtx)
				return runErr
			})
			if err != nil {
				return err
			}

			if flags.jsonOut {
				return writeJSON(cmd, summary)
			}
			printAssembleSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.source, "source", "", "Narration audio file (overrides paths.source_audio)")
	cmd.Flags().StringVar(&flags.transcript, "transcript", "", "Transcript file (overrides paths.transcript)")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Track output directory (overrides paths.output_dir)")
	cmd.Flags().StringVar(&flags.sequence, "sequence", "", "Lighting sequence file (overrides paths.sequence_output)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Sequence format: json or yaml")
	cmd.Flags().StringVar(&flags.prefix, "prefix", "", "Track file name prefix")
	cmd.Flags().StringVar(&flags.bitrate, "bitrate", "", "Track bitrate, e.g. 128k")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Fail on the first malformed transcript block")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}

func (f assembleFlags) apply(opts *show.Options, cmd *cobra.Command) error {
	override := func(dst *string, value string) error {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil
		}
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return err
		}
		*dst = expanded
		return nil
	}
	if err := override(&opts.SourcePath, f.source); err != nil {
		return err
	}
	if err := override(&opts.TranscriptPath, f.transcript); err != nil {
		return err
	}
	if err := override(&opts.OutputDir, f.outputDir); err != nil {
		return err
	}
	if err := override(&opts.SequencePath, f.sequence); err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(f.format) != "":
		format, err := sequence.ParseFormat(f.format)
		if err != nil {
			return err
		}
		opts.SequenceFormat = format
	case strings.TrimSpace(f.sequence) != "":
		opts.SequenceFormat = sequence.FormatForPath(opts.SequencePath)
	}
	if cmd.Flags().Changed("prefix") {
		opts.FilePrefix = strings.TrimSpace(f.prefix)
	}
	if strings.TrimSpace(f.bitrate) != "" {
		opts.Bitrate = strings.TrimSpace(f.bitrate)
	}
	if f.strict {
		opts.Strict = true
	}
	return nil
}

func checkAssembleInputs(opts show.Options) error {
	return preflight.Err([]preflight.Result{
		preflight.CheckFileReadable("Narration audio", opts.SourcePath),
		preflight.CheckFileReadable("Transcript", opts.TranscriptPath),
		preflight.CheckOutputDirectory("Track output directory", opts.OutputDir),
		preflight.CheckOutputDirectory("Sequence directory", filepath.Dir(opts.SequencePath)),
	})
}

func printAssembleSummary(cmd *cobra.Command, summary *show.Summary) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(summary.Tracks))
	for _, track := range summary.Tracks {
		rows = append(rows, []string{
			track.Speaker,
			strconv.Itoa(track.Segments),
			formatMs(track.SpeakingMs),
			track.Path,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Speaker", "Lines", "Speaking", "File"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Narration: %s\n", formatMs(summary.SourceDurationMs))
	fmt.Fprintf(out, "Blocks: %d total, %d malformed, %d unknown speaker, %d clamped\n",
		summary.Blocks, summary.Malformed, summary.Unknown, summary.Clamped)
	fmt.Fprintf(out, "Sequence: %d events -> %s\n", summary.Events, summary.SequencePath)
}
