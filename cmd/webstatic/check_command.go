package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"webstatic/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify inputs, output directories and the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			if ctx.JSONMode() {
				rows := make([]checkJSON, 0, len(results))
				for _, r := range results {
					rows = append(rows, checkJSON(r))
				}
				if err := writeJSON(cmd, rows); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				label := "Project"
				if ctx.configPath != "" {
					label = ctx.configPath
				}
				for _, line := range renderCheckResults(label, results, colorize) {
					fmt.Fprintln(out, line)
				}
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
