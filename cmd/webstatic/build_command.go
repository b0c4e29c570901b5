package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"webstatic/internal/build"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var lockWait time.Duration

	cmd := &cobra.Command{
		Use:   "build [bundle...]",
		Short: "Build configured bundles",
		Long: `Build bundles in configuration order, or only the named bundles.

Hashed outputs are recorded in the manifest and the file written by the
previous build of the same output is removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(cfg.Bundles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bundles configured")
				return nil
			}
			logger, closeLog, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			builder, err := build.New(cfg, logger, build.WithLockWait(lockWait))
			if err != nil {
				return err
			}

			summary, runErr := builder.Run(cmd.Context(), args...)
			if ctx.JSONMode() {
				if err := writeJSON(cmd, buildSummaryToJSON(summary, runErr)); err != nil {
					return err
				}
				return runErr
			}
			if summary != nil && len(summary.Results) > 0 {
				printBuildSummary(cmd, summary, cfg.Paths.Root)
			}
			return runErr
		},
	}

	cmd.Flags().DurationVar(&lockWait, "wait", 0, "Wait up to this long for a concurrent build to finish")
	return cmd
}

func printBuildSummary(cmd *cobra.Command, summary *build.Summary, root string) {
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		hash := r.Hash
		if hash == "" {
			hash = "-"
		}
		rows = append(rows, []string{
			r.Bundle,
			displayPath(root, r.Written),
			hash,
			formatBytes(int64(r.Bytes)),
			yesNo(r.Gzipped),
			formatElapsed(r.Duration),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, renderTable(
		[]string{"Bundle", "Written", "Hash", "Size", "Gzip", "Time"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
	))
	fmt.Fprintf(out, "\nBuilt %d bundle(s) in %s\n", len(summary.Results), formatElapsed(summary.Elapsed))
}

func buildSummaryToJSON(summary *build.Summary, runErr error) buildSummaryJSON {
	out := buildSummaryJSON{Results: []buildResultJSON{}}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	if summary == nil {
		return out
	}
	out.RunID = summary.RunID
	out.Manifest = summary.Manifest
	out.ElapsedMS = summary.Elapsed.Milliseconds()
	for _, r := range summary.Results {
		out.Results = append(out.Results, buildResultJSON{
			Bundle:     r.Bundle,
			Output:     r.Output,
			Written:    r.Written,
			Hash:       r.Hash,
			Bytes:      r.Bytes,
			Gzipped:    r.Gzipped,
			DurationMS: r.Duration.Milliseconds(),
		})
	}
	return out
}

// displayPath shortens path relative to root when it lives below it.
func displayPath(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return path
	}
	return rel
}
