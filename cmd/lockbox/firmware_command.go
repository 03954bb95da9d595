package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lockbox/internal/config"
	"lockbox/internal/firmware"
	"lockbox/internal/manifest"
)

func newFirmwareCommand(ctx *commandContext) *cobra.Command {
	var sourceDir, headerPath string

	cmd := &cobra.Command{
		Use:   "firmware",
		Short: "Generate the PROGMEM audio header for the microcontroller",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts := firmware.Options{
				SourceDir:    cfg.Firmware.SourceDir,
				HeaderPath:   cfg.Firmware.HeaderPath,
				IncludeGuard: cfg.Firmware.IncludeGuard,
			}
			if v := strings.TrimSpace(sourceDir); v != "" {
				if opts.SourceDir, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			if v := strings.TrimSpace(headerPath); v != "" {
				if opts.HeaderPath, err = config.ExpandPath(v); err != nil {
					return err
				}
			}

			runCtx, stop := runContext(cmd)
			defer stop()

			var result *firmware.Result
			err = withRunLock(filepath.Dir(opts.HeaderPath), func() error {
				var genErr error
				result, genErr = firmware.Generate(opts, logger)
				return genErr
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
				if err := store.Record(runCtx, manifest.Entry{
					OutputPath: result.HeaderPath,
					Kind:       manifest.KindHeader,
					InputPath:  opts.SourceDir,
					ParamsHash: opts.IncludeGuard,
				}); err != nil {
					return err
				}
			}

			rows := make([][]string, 0, len(result.Assets))
			for _, asset := range result.Assets {
				rows = append(rows, []string{asset.FileName, asset.Var, formatBytes(len(asset.Data))})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Clip", "Variable", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "Wrote %s (%s)\n", result.HeaderPath, formatBytes(result.TotalBytes))
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceDir, "source-dir", "", "Directory of MP3 clips (overrides firmware.source_dir)")
	cmd.Flags().StringVarP(&headerPath, "output", "o", "", "Header file to write (overrides firmware.header_path)")
	return cmd
}
