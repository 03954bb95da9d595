package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lockbox/internal/config"
	"lockbox/internal/fileutil"
	"lockbox/internal/imageprep"
	"lockbox/internal/manifest"
)

func newImageCommand(ctx *commandContext) *cobra.Command {
	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "Mini-game sprite utilities",
	}
	imageCmd.AddCommand(newImageTransparentCommand(ctx))
	imageCmd.AddCommand(newImageInspectCommand(ctx))
	return imageCmd
}

func newImageTransparentCommand(ctx *commandContext) *cobra.Command {
	var assetsDir string
	var threshold int

	cmd := &cobra.Command{
		Use:   "transparent [sprite...]",
		Short: "Clear near-white sprite backgrounds to transparency, rewriting each PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts := imageprep.OptionsFromConfig(cfg)
			if v := strings.TrimSpace(assetsDir); v != "" {
				if opts.AssetsDir, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			if len(args) > 0 {
				opts.Files = args
			}
			if cmd.Flags().Changed("threshold") {
				if threshold < 0 || threshold > 254 {
					return fmt.Errorf("--threshold %d must be between 0 and 254", threshold)
				}
				opts.WhiteThreshold = threshold
			}

			runCtx, stop := runContext(cmd)
			defer stop()

			var batch *imageprep.Batch
			err = withRunLock(opts.AssetsDir, func() error {
				batch = imageprep.ClearWhiteAll(opts, logger)
				return nil
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
				params := fileutil.HashString(strconv.Itoa(opts.WhiteThreshold))
				for _, r := range batch.Results {
					hash, err := fileutil.HashFile(r.Path)
					if err != nil {
						return err
					}
					if err := store.Record(runCtx, manifest.Entry{
						OutputPath: r.Path,
						Kind:       manifest.KindSprite,
						InputPath:  r.Path,
						InputHash:  hash,
						ParamsHash: params,
					}); err != nil {
						return err
					}
				}
			}

			rows := make([][]string, 0, len(batch.Results)+len(batch.Missing)+len(batch.Failed))
			for _, r := range batch.Results {
				rows = append(rows, []string{r.Path, fmt.Sprintf("%dx%d", r.Width, r.Height), strconv.Itoa(r.Cleared), "processed"})
			}
			for _, path := range batch.Missing {
				rows = append(rows, []string{path, "", "", "not found"})
			}
			for _, path := range batch.Failed {
				rows = append(rows, []string{path, "", "", "failed"})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Sprite", "Size", "Cleared", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			if len(batch.Failed) > 0 {
				return fmt.Errorf("%d sprite(s) failed", len(batch.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&assetsDir, "assets-dir", "", "Sprite directory (overrides images.assets_dir)")
	cmd.Flags().IntVar(&threshold, "threshold", imageprep.DefaultWhiteThreshold, "Clear pixels whose red, green and blue all exceed this value")
	return cmd
}

func newImageInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect [image...]",
		Short: "Report image size, color mode and transparency",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := imageprep.OptionsFromConfig(cfg)
			var paths []string
			if len(args) > 0 {
				for _, arg := range args {
					paths = append(paths, opts.Resolve(arg))
				}
			} else if paths, err = imageprep.ListImages(opts.AssetsDir); err != nil {
				return err
			}

			infos := make([]imageprep.Info, 0, len(paths))
			for _, path := range paths {
				info, err := imageprep.Inspect(path)
				if err != nil {
					return err
				}
				infos = append(infos, info)
			}
			if jsonOut {
				return writeJSON(cmd, infos)
			}

			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{
					info.Path,
					fmt.Sprintf("%dx%d", info.Width, info.Height),
					info.Mode,
					yesNo(info.HasAlpha),
					yesNo(info.Transparent),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Image", "Size", "Mode", "Alpha", "Transparent"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
