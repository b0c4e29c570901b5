package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"webstatic/internal/prune"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun bool
		minAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove superseded hashed asset files",
		Long: `Remove hashed files left behind by earlier builds.

For every manifest entry, files next to it named like the entry with a
different hash (and their .gz siblings) are removed. Use --dry-run to list
candidates and --min-age to keep recently written files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.openManifest()
			if err != nil {
				return err
			}
			logger, closeLog, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			result := prune.Run(cmd.Context(), m, prune.Options{
				DryRun: dryRun,
				MinAge: minAge,
				Logger: logger,
			})
			if ctx.JSONMode() {
				return writePruneJSON(cmd, result, dryRun)
			}
			printPruneResult(cmd, result, dryRun)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List files that would be removed")
	cmd.Flags().DurationVar(&minAge, "min-age", 0, "Keep files modified more recently than this")
	return cmd
}

func printPruneResult(cmd *cobra.Command, result prune.Result, dryRun bool) {
	out := cmd.OutOrStdout()
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No superseded files to prune")
		return
	}
	for _, path := range result.Removed {
		age := ""
		if info, err := os.Stat(path); err == nil {
			age = " (" + formatAge(time.Since(info.ModTime())) + " old)"
		}
		fmt.Fprintf(out, "  %s%s\n", path, age)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "%s %d files (%s), %d errors\n", verb, len(result.Removed), formatBytes(result.Bytes), len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
		}
		return
	}
	fmt.Fprintf(out, "%s %d files (%s)\n", verb, len(result.Removed), formatBytes(result.Bytes))
}

func writePruneJSON(cmd *cobra.Command, result prune.Result, dryRun bool) error {
	errs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
	}
	removed := result.Removed
	if removed == nil {
		removed = []string{}
	}
	return writeJSON(cmd, map[string]any{
		"dry_run": dryRun,
		"removed": removed,
		"bytes":   result.Bytes,
		"errors":  errs,
	})
}
