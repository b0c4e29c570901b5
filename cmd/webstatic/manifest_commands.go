package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the asset manifest",
	}

	manifestCmd.AddCommand(newManifestShowCommand(ctx))
	manifestCmd.AddCommand(newManifestGetCommand(ctx))

	return manifestCmd
}

func newManifestShowCommand(ctx *commandContext) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List manifest entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.openManifest()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if raw {
				if m.Len() > 0 {
					fmt.Fprintln(out, m.Dumps())
				}
				return nil
			}

			entries := m.Entries()
			if ctx.JSONMode() {
				rows := make([]manifestEntryJSON, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, manifestEntryJSON{
						Path:     e.Rel,
						Key:      e.Key,
						Hash:     m.Truncate(e.Hash),
						FullHash: e.Hash,
					})
				}
				return writeJSON(cmd, map[string]any{
					"manifest": m.Path(),
					"entries":  rows,
				})
			}

			if len(entries) == 0 {
				fmt.Fprintf(out, "Manifest %s has no entries\n", m.Path())
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Rel, m.Truncate(e.Hash), e.Hash})
			}
			fmt.Fprintf(out, "Manifest: %s\n\n", m.Path())
			fmt.Fprint(out, renderTable([]string{"Path", "Hash", "Full hash"}, rows, nil))
			fmt.Fprintf(out, "\nTotal: %d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the manifest file format instead of a table")
	return cmd
}

func newManifestGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print the hash prefix recorded for a path",
		Long: `Print the hash prefix recorded for a path.

Relative paths resolve against the manifest directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.openManifest()
			if err != nil {
				return err
			}
			hash, err := m.Get(args[0])
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]string{"path": args[0], "hash": hash})
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
