package config

import (
	"errors"
	"fmt"
	"strings"

	"webstatic/internal/digest"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateManifest(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if err := c.validateBundles(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateManifest() error {
	if c.Manifest.HashLength < 0 || c.Manifest.HashLength > maxHashLength {
		return fmt.Errorf("manifest.hash_length must be between 0 and %d", maxHashLength)
	}
	if _, err := digest.Parse(c.Manifest.Algorithm); err != nil {
		return fmt.Errorf("manifest.algorithm: %w", err)
	}
	if strings.TrimSpace(c.Paths.Manifest) == "" {
		return errors.New("paths.manifest must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func (c *Config) validateRegistry() error {
	for name, rt := range c.Registry.Types {
		if strings.TrimSpace(name) == "" {
			return errors.New("registry.types: type name must not be empty")
		}
		switch rt.Kind {
		case "file", "css", "js", "favicon":
		default:
			return fmt.Errorf("registry.types.%s.kind: unsupported value %q", name, rt.Kind)
		}
	}
	return nil
}

func (c *Config) validateBundles() error {
	seen := make(map[string]struct{}, len(c.Bundles))
	for i, b := range c.Bundles {
		if b.Name == "" {
			return fmt.Errorf("bundles[%d].name must be set", i)
		}
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("bundles[%d]: duplicate bundle name %q", i, b.Name)
		}
		seen[b.Name] = struct{}{}
		if len(b.Inputs) == 0 {
			return fmt.Errorf("bundle %q: inputs must not be empty", b.Name)
		}
		if b.Output == "" {
			return fmt.Errorf("bundle %q: output must be set", b.Name)
		}
		switch b.Minify {
		case "", "css", "js", "html":
		default:
			return fmt.Errorf("bundle %q: minify must be one of css, js, html (got %q)", b.Name, b.Minify)
		}
		for j, r := range b.Replace {
			if r.From == "" {
				return fmt.Errorf("bundle %q: replace[%d].from must not be empty", b.Name, j)
			}
		}
	}
	return nil
}
