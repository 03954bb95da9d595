package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lockbox/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report external tools, input files and output directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Configuration", colorize))
			if ctx.configSeen {
				fmt.Fprintln(out, renderStatusLine("Config file", statusOK, ctx.configPath, colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, "not found, using defaults", colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Speakers", statusInfo, strings.Join(cfg.SpeakerNames(), ", "), colorize))
			fmt.Fprintln(out, renderStatusLine("Strict transcript", statusInfo, yesNo(cfg.Transcript.Strict), colorize))
			fmt.Fprintln(out, renderStatusLine("Manifest", statusInfo, manifestStatus(cfg.Manifest.Enabled, cfg.Manifest.Path), colorize))

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Tools", colorize))
			failed := false
			for _, status := range preflight.CheckSystemDeps(cfg) {
				switch {
				case status.Available:
					fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, status.Path, colorize))
				case status.Optional:
					fmt.Fprintln(out, renderStatusLine(status.Name, statusWarn, status.Detail+" (optional)", colorize))
				default:
					failed = true
					fmt.Fprintln(out, renderStatusLine(status.Name, statusError, status.Detail, colorize))
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Paths", colorize))
			for _, result := range preflight.RunAll(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed = true
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			if failed {
				return errors.New("status checks failed")
			}
			return nil
		},
	}
}

func manifestStatus(enabled bool, path string) string {
	if !enabled {
		return "disabled"
	}
	return "enabled (" + path + ")"
}
