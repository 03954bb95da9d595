package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lockbox/internal/config"
	"lockbox/internal/deps"
	"lockbox/internal/media/ffmpeg"
	"lockbox/internal/whisperx"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var source, output, model string
	var force bool

	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Draft a transcript with WhisperX for manual speaker assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries([]deps.Requirement{
				{Name: "uvx", Command: whisperx.UVXCommand},
				{Name: "FFmpeg", Command: cfg.FFmpegBinary()},
			})
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("transcribe requires %s on PATH", strings.Join(missing, ", "))
			}

			opts := whisperx.DraftOptionsFromConfig(cfg)
			opts.Force = force
			if v := strings.TrimSpace(source); v != "" {
				if opts.SourcePath, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			if v := strings.TrimSpace(output); v != "" {
				if opts.OutputPath, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			settings := whisperx.ConfigFromSettings(cfg.Transcribe)
			if v := strings.TrimSpace(model); v != "" {
				settings.Model = v
			}

			runCtx, stop := runContext(cmd)
			defer stop()

			client := ffmpeg.New(ffmpeg.WithBinary(cfg.FFmpegBinary()), ffmpeg.WithInspectBinary(cfg.FFprobeBinary()))
			service := whisperx.NewService(settings, whisperx.UVXCommand, client)
			result, err := service.Draft(runCtx, opts, logger)
			if errors.Is(err, whisperx.ErrDraftExists) {
				return fmt.Errorf("%w (use --force to replace it)", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d draft blocks to %s\n", result.Segments, result.OutputPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Replace each [%s] tag with a box tag before assembling.\n", placeholder(opts.PlaceholderTag))
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Narration audio file (overrides paths.source_audio)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Draft transcript path (overrides transcribe.output_path)")
	cmd.Flags().StringVar(&model, "model", "", "WhisperX model (overrides transcribe.model)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing draft")
	return cmd
}

func placeholder(tag string) string {
	if strings.TrimSpace(tag) == "" {
		return "Unassigned"
	}
	return tag
}
