package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Normalize fills defaults, expands paths and canonicalizes enumerations.
// Relative paths resolve against baseDir (for Root) and Root (for the rest).
// Load calls it with the config file directory; callers building a Config in
// code call it themselves.
func (c *Config) Normalize(baseDir string) error {
	if err := c.normalizePaths(baseDir); err != nil {
		return err
	}
	c.normalizeManifest()
	c.normalizeLogging()
	if err := c.normalizeRegistry(); err != nil {
		return err
	}
	if err := c.normalizeBundles(); err != nil {
		return err
	}
	return c.normalizeWatch()
}

func (c *Config) normalizePaths(baseDir string) error {
	var err error
	if strings.TrimSpace(c.Paths.Root) == "" {
		c.Paths.Root = defaultRoot
	}
	if c.Paths.Root, err = resolvePath(baseDir, strings.TrimSpace(c.Paths.Root)); err != nil {
		return fmt.Errorf("paths.root: %w", err)
	}
	if strings.TrimSpace(c.Paths.Manifest) == "" {
		c.Paths.Manifest = defaultManifestName
	}
	if c.Paths.Manifest, err = resolvePath(c.Paths.Root, strings.TrimSpace(c.Paths.Manifest)); err != nil {
		return fmt.Errorf("paths.manifest: %w", err)
	}
	if c.Paths.LogDir, err = resolvePath(c.Paths.Root, strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeManifest() {
	c.Manifest.Algorithm = strings.ToLower(strings.TrimSpace(c.Manifest.Algorithm))
	if c.Manifest.Algorithm == "" {
		c.Manifest.Algorithm = defaultAlgorithm
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv(logLevelEnv); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeRegistry() error {
	var err error
	c.Registry.URLPath = strings.TrimSpace(c.Registry.URLPath)
	if c.Registry.URLPath == "" {
		c.Registry.URLPath = defaultRegistryURLPath
	}
	if strings.TrimSpace(c.Registry.FSPath) == "" {
		c.Registry.FSPath = c.Paths.Root
	}
	if c.Registry.FSPath, err = resolvePath(c.Paths.Root, strings.TrimSpace(c.Registry.FSPath)); err != nil {
		return fmt.Errorf("registry.fs_path: %w", err)
	}
	c.Registry.Domain = strings.TrimSpace(c.Registry.Domain)
	if c.Registry.HashLength <= 0 {
		c.Registry.HashLength = c.Manifest.HashLength
	}
	for name, rt := range c.Registry.Types {
		rt.Kind = strings.ToLower(strings.TrimSpace(rt.Kind))
		if rt.Kind == "" {
			rt.Kind = "file"
		}
		rt.Ext = strings.TrimPrefix(strings.TrimSpace(rt.Ext), ".")
		if rt.Kind == "favicon" && rt.Ext == "" {
			rt.Ext = defaultFaviconExtension
		}
		c.Registry.Types[name] = rt
	}
	return nil
}

func (c *Config) normalizeBundles() error {
	for i := range c.Bundles {
		b := &c.Bundles[i]
		b.Name = strings.TrimSpace(b.Name)
		b.Minify = strings.ToLower(strings.TrimSpace(b.Minify))

		inputs := make([]string, 0, len(b.Inputs))
		for _, input := range b.Inputs {
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			resolved, err := resolvePath(c.Paths.Root, input)
			if err != nil {
				return fmt.Errorf("bundles[%d].inputs: %w", i, err)
			}
			inputs = append(inputs, resolved)
		}
		b.Inputs = inputs

		output, err := resolvePath(c.Paths.Root, strings.TrimSpace(b.Output))
		if err != nil {
			return fmt.Errorf("bundles[%d].output: %w", i, err)
		}
		b.Output = output
		if b.Name == "" && b.Output != "" {
			b.Name = filepath.Base(b.Output)
		}
	}
	return nil
}

// normalizeWatch resolves configured directories and adds the directory of
// every bundle input, deduplicated in first-seen order.
func (c *Config) normalizeWatch() error {
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = defaultWatchDebounceMS
	}
	seen := make(map[string]struct{})
	dirs := make([]string, 0, len(c.Watch.Dirs))
	add := func(dir string) {
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	for _, dir := range c.Watch.Dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		resolved, err := resolvePath(c.Paths.Root, dir)
		if err != nil {
			return fmt.Errorf("watch.dirs: %w", err)
		}
		add(resolved)
	}
	for _, b := range c.Bundles {
		for _, input := range b.Inputs {
			add(filepath.Dir(input))
		}
	}
	c.Watch.Dirs = dirs
	return nil
}
