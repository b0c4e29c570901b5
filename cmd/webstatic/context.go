package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"webstatic/internal/config"
	"webstatic/internal/logging"
	"webstatic/internal/manifest"
	"webstatic/internal/registry"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.explicitConfigPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) explicitConfigPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// JSONMode reports whether --json was given.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger builds a logger from the loaded config writing to w. Callers defer
// the returned close function.
func (c *commandContext) logger(w io.Writer) (*slog.Logger, func() error, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := logging.NewFromConfig(cfg, w)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, closeLog, nil
}

// openManifest loads the project manifest. A manifest that was never built
// is empty.
func (c *commandContext) openManifest() (*manifest.Manifest, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	m, err := manifest.Open(cfg.Paths.Manifest, cfg.Manifest.HashLength)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	return m, nil
}

// registry builds the configured registry and seeds it from the project
// manifest, which need not live at the registry's own manifest path.
func (c *commandContext) registry() (*registry.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts, err := registryOptions(cfg.Registry)
	if err != nil {
		return nil, err
	}
	reg := registry.New(opts)

	m, err := c.openManifest()
	if err != nil {
		return nil, err
	}
	data := make(map[string]string, m.Len())
	for _, entry := range m.Entries() {
		data[entry.Key] = entry.Hash
	}
	reg.LoadManifestData(data)
	return reg, nil
}

func registryOptions(cfg config.Registry) (registry.Options, error) {
	types := make(map[string]registry.ResourceType, len(cfg.Types))
	for name, t := range cfg.Types {
		kind, err := registry.ParseKind(t.Kind)
		if err != nil {
			return registry.Options{}, fmt.Errorf("registry type %q: %w", name, err)
		}
		switch kind {
		case registry.KindFavicon:
			types[name] = registry.Favicon(t.FSPath, t.Ext)
		default:
			types[name] = registry.ResourceType{
				Kind:    kind,
				URLPath: t.URLPath,
				FSPath:  t.FSPath,
				AddHash: t.AddHash,
				Ext:     t.Ext,
			}
		}
	}
	return registry.Options{
		URLPath:    cfg.URLPath,
		FSPath:     cfg.FSPath,
		Domain:     cfg.Domain,
		HashLength: cfg.HashLength,
		Types:      types,
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
