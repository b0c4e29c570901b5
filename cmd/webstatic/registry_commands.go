package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newRegistryCommand(ctx *commandContext) *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the asset registry",
	}
	registryCmd.AddCommand(newRegistryTypesCommand(ctx))
	return registryCmd
}

func newRegistryTypesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List configured resource types",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reg, err := ctx.registry()
			if err != nil {
				return err
			}
			names := reg.TypeNames()

			if ctx.JSONMode() {
				types := make([]map[string]any, 0, len(names))
				for _, name := range names {
					rt, _ := reg.Type(name)
					types = append(types, map[string]any{
						"name":     name,
						"kind":     rt.Kind.String(),
						"url_path": rt.URLPath,
						"fs_path":  rt.FSPath,
						"add_hash": rt.AddHash,
						"ext":      rt.Ext,
					})
				}
				return writeJSON(cmd, map[string]any{
					"url_path": cfg.Registry.URLPath,
					"fs_path":  cfg.Registry.FSPath,
					"domain":   cfg.Registry.Domain,
					"types":    types,
				})
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No resource types configured")
				return nil
			}
			title := cases.Title(language.English)
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rt, _ := reg.Type(name)
				rows = append(rows, []string{name, title.String(rt.Kind.String()), rt.URLPath, rt.FSPath, yesNo(rt.AddHash)})
			}
			domain := cfg.Registry.Domain
			if domain == "" {
				domain = "(none)"
			}
			fmt.Fprintf(out, "URL prefix: %s\nFS root:    %s\nDomain:     %s\n\n", cfg.Registry.URLPath, cfg.Registry.FSPath, domain)
			fmt.Fprint(out, renderTable([]string{"Type", "Kind", "URL path", "FS path", "Hash"}, rows, nil))
			fmt.Fprintln(out)
			return nil
		},
	}
}
