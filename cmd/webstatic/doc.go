// Package main hosts the webstatic CLI entrypoint and command graph.
//
// The Cobra command tree builds configured bundles, watches sources for
// changes, inspects the manifest, resolves registry references, prunes
// superseded hashed files and scaffolds configuration. It centralizes
// configuration resolution and logger setup so subcommands only render
// results.
//
// Keep this package lean: new behavior belongs in the internal packages and
// is surfaced here through dedicated commands or flags.
package main
