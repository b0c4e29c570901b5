package testsupport

import (
	"path/filepath"
	"testing"

	"webstatic/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a normalized config rooted in a unique temp directory.
// The manifest lives at <root>/static/manifest, next to the registry root.
// Bundle paths given through options are relative to the root.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Root = base
	cfgVal.Paths.Manifest = filepath.Join("static", "manifest")
	cfgVal.Registry.FSPath = "static"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Normalize(base); err != nil {
		t.Fatalf("normalize test config: %v", err)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("validate test config: %v", err)
	}
	return builder.cfg
}

// WithBundle appends a bundle to the test config.
func WithBundle(b config.Bundle) ConfigOption {
	return func(builder *configBuilder) {
		builder.cfg.Bundles = append(builder.cfg.Bundles, b)
	}
}

// WithHashLength overrides the manifest hash prefix length.
func WithHashLength(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Manifest.HashLength = n
	}
}

// WithAlgorithm overrides the digest algorithm.
func WithAlgorithm(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Manifest.Algorithm = name
	}
}

// WithRegistryType registers a resource type on the test config.
func WithRegistryType(name string, rt config.ResourceType) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Registry.Types == nil {
			b.cfg.Registry.Types = make(map[string]config.ResourceType)
		}
		b.cfg.Registry.Types[name] = rt
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.Root
}
