package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lockbox/internal/config"
	"lockbox/internal/sequence"
)

func newSequenceCommand(ctx *commandContext) *cobra.Command {
	sequenceCmd := &cobra.Command{
		Use:   "sequence",
		Short: "Lighting sequence utilities",
	}
	sequenceCmd.AddCommand(newSequenceValidateCommand(ctx))
	return sequenceCmd
}

func newSequenceValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a sequence file against the sequence schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Paths.SequenceOutput
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				if path, err = config.ExpandPath(args[0]); err != nil {
					return err
				}
			}

			problems, err := sequence.ValidateFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(problems) == 0 {
				fmt.Fprintf(out, "%s: valid\n", path)
				return nil
			}
			for _, p := range problems {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return fmt.Errorf("%s: %d problem(s)", path, len(problems))
		},
	}
}
