package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lockbox/internal/config"
	"lockbox/internal/media/ffmpeg"
	"lockbox/internal/normalize"
)

func newNormalizeCommand(ctx *commandContext) *cobra.Command {
	var inputDir, outputDir string
	var jobs int

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Apply the vocal EQ, compression and loudness chain to every track",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts := normalize.OptionsFromConfig(cfg.Normalize)
			if v := strings.TrimSpace(inputDir); v != "" {
				if opts.InputDir, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			if v := strings.TrimSpace(outputDir); v != "" {
				if opts.OutputDir, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			if jobs > 0 {
				opts.Jobs = jobs
			}

			runCtx, stop := runContext(cmd)
			defer stop()

			store, err := openManifest(runCtx, cfg)
			if err != nil {
				return err
			}
			var tracker normalize.Manifest
			if store != nil {
				defer store.Close()
				tracker = store
			}

			client := ffmpeg.New(ffmpeg.WithBinary(cfg.FFmpegBinary()), ffmpeg.WithInspectBinary(cfg.FFprobeBinary()))
			var result *normalize.Result
			err = withRunLock(opts.OutputDir, func() error {
				var runErr error
				result, runErr = normalize.New(opts, client, tracker, logger).Run(runCtx)
				return runErr
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Filter chain: %s\n", opts.Chain)
			fmt.Fprintf(out, "Normalized %d, skipped %d unchanged, failed %d (%s)\n",
				len(result.Processed), len(result.Skipped), len(result.Failed), result.Elapsed.Round(time.Millisecond))
			for _, failure := range result.Failed {
				fmt.Fprintf(out, "  %s: %v\n", failure.Name, failure.Err)
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d file(s) failed to normalize", len(result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputDir, "input-dir", "", "Directory of MP3 tracks (overrides normalize.input_dir)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for normalized tracks (overrides normalize.output_dir)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Files to process concurrently (overrides normalize.jobs)")
	return cmd
}
