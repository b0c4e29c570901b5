package preflight

import (
	"context"
	"fmt"
	"path/filepath"

	"webstatic/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Warning marks a passing check whose state deserves attention, such
	// as a directory the build will have to create.
	Warning bool
	Detail  string
}

// RunAll executes every check applicable to the given config: the manifest
// directory, each bundle's inputs and output directory, the manifest lock and
// the manifest contents.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Manifest directory", filepath.Dir(cfg.Paths.Manifest)))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	for _, bundle := range cfg.Bundles {
		if ctx.Err() != nil {
			break
		}
		results = append(results, CheckInputs(fmt.Sprintf("Bundle %s inputs", bundle.Name), bundle.Inputs))
		outName := fmt.Sprintf("Bundle %s output", bundle.Name)
		if bundle.Makedirs {
			results = append(results, CheckCreatable(outName, filepath.Dir(bundle.Output)))
		} else {
			results = append(results, CheckDirectoryAccess(outName, filepath.Dir(bundle.Output)))
		}
	}

	results = append(results, CheckLock("Manifest lock", cfg.LockPath()))
	results = append(results, CheckManifest("Manifest", cfg.Paths.Manifest, cfg.Manifest.HashLength))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
