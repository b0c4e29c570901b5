package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"webstatic/internal/registry"
)

type resolveFormat string

const (
	resolveURLPath resolveFormat = "path"
	resolveURL     resolveFormat = "url"
	resolveFS      resolveFormat = "fs"
	resolveHTML    resolveFormat = "html"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var (
		format   string
		noHash   bool
		hash     bool
		absolute bool
		media    string
		deferTag bool
		async    bool
		ext      string
	)

	cmd := &cobra.Command{
		Use:   "resolve <type> [name...]",
		Short: "Resolve asset names to hashed paths, URLs or HTML",
		Long: `Resolve asset names of a registry type.

Formats: path (URL path, default), url (//domain/path), fs (filesystem path)
and html (link, script or favicon tags). Favicon types resolve the default
favicon when no name is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.registry()
			if err != nil {
				return err
			}

			var opts []registry.Option
			if noHash {
				opts = append(opts, registry.WithAddHash(false))
			}
			if hash {
				opts = append(opts, registry.WithAddHash(true))
			}
			if absolute {
				opts = append(opts, registry.WithAbsoluteURL())
			}
			if media != "" {
				opts = append(opts, registry.WithMedia(media))
			}
			if deferTag {
				opts = append(opts, registry.WithDefer())
			}
			if async {
				opts = append(opts, registry.WithAsync())
			}
			if ext != "" {
				opts = append(opts, registry.WithExt(ext))
			}

			resources, err := reg.Resolve(args[0], args[1:], opts...)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeResourcesJSON(cmd, resources)
			}

			var lines []string
			switch resolveFormat(strings.ToLower(strings.TrimSpace(format))) {
			case resolveURLPath:
				lines = resources.URLPaths()
			case resolveFS:
				lines = resources.FSPaths()
			case resolveURL:
				if lines, err = resources.URLs(); err != nil {
					return err
				}
			case resolveHTML:
				html, err := resources.HTML()
				if err != nil {
					return err
				}
				lines = []string{html}
			default:
				return fmt.Errorf("unknown format %q (want path, url, fs or html)", format)
			}
			out := cmd.OutOrStdout()
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(resolveURLPath), "Output format: path, url, fs or html")
	cmd.Flags().BoolVar(&noHash, "no-hash", false, "Resolve unhashed names regardless of the type setting")
	cmd.Flags().BoolVar(&hash, "hash", false, "Resolve hashed names regardless of the type setting")
	cmd.Flags().BoolVar(&absolute, "absolute", false, "Reference //domain URLs in HTML")
	cmd.Flags().StringVar(&media, "media", "", "Media attribute for stylesheet links")
	cmd.Flags().BoolVar(&deferTag, "defer", false, "Add defer to script tags")
	cmd.Flags().BoolVar(&async, "async", false, "Add async to script tags")
	cmd.Flags().StringVar(&ext, "ext", "", "Favicon extension")
	cmd.MarkFlagsMutuallyExclusive("hash", "no-hash")
	return cmd
}

// writeResourcesJSON includes the URL and HTML forms only where the
// resource kind supports them.
func writeResourcesJSON(cmd *cobra.Command, resources registry.Resources) error {
	rows := make([]resourceJSON, 0, len(resources))
	for _, r := range resources {
		row := resourceJSON{
			Name:    r.Name,
			Kind:    r.Kind.String(),
			FSPath:  r.FSPath,
			URLPath: r.URLPath,
		}
		if url, err := r.URL(); err == nil {
			row.URL = url
		}
		if html, err := r.HTML(); err == nil {
			row.HTML = html
		}
		rows = append(rows, row)
	}
	return writeJSON(cmd, rows)
}
