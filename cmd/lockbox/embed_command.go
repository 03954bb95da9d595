package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lockbox/internal/config"
	"lockbox/internal/logging"
	"lockbox/internal/webembed"
)

func newEmbedCommand(ctx *commandContext) *cobra.Command {
	var htmlPath, outputPath, templatePath string

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Inline image assets into the web page as base64 data URIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			base, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(base, "embedder")
			if len(cfg.Embed.Assets) == 0 {
				return errors.New("no assets configured under [embed.assets]")
			}

			source := cfg.Embed.HTMLPath
			target := cfg.Embed.OutputPath
			if v := strings.TrimSpace(htmlPath); v != "" {
				if source, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			if v := strings.TrimSpace(outputPath); v != "" {
				if target, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
			if target == "" {
				target = source
			}

			out := cmd.OutOrStdout()
			return withRunLock(filepath.Dir(target), func() error {
				if v := strings.TrimSpace(templatePath); v != "" {
					tmpl, err := config.ExpandPath(v)
					if err != nil {
						return err
					}
					if err := webembed.RenderTemplate(tmpl, target, cfg.Embed.Assets, cfg.Embed.AssetsDir); err != nil {
						return err
					}
					logger.Info("rendered page template",
						logging.String("template", tmpl),
						logging.String("output", target),
					)
					fmt.Fprintf(out, "Rendered %s -> %s\n", tmpl, target)
					return nil
				}

				replacements, err := webembed.ReplaceFile(source, target, cfg.Embed.Assets, cfg.Embed.AssetsDir)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(replacements))
				for _, r := range replacements {
					rows = append(rows, []string{r.Placeholder, r.File, strconv.Itoa(r.Count)})
					if r.Count == 0 {
						logging.WarnWithContext(logger, "placeholder not found in page", "placeholder_missing",
							logging.String("placeholder", r.Placeholder),
							logging.String(logging.FieldImpact, "asset not embedded"),
						)
					}
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Placeholder", "Asset", "Replaced"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Wrote %s\n", target)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "Page containing placeholders (overrides embed.html_path)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Page to write (overrides embed.output_path)")
	cmd.Flags().StringVar(&templatePath, "template", "", "Render a Go template with {{.Assets}} instead of replacing placeholders")
	return cmd
}
