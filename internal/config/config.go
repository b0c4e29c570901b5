package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ProjectConfigName is the per-project configuration file looked up in the
// working directory.
const ProjectConfigName = "webstatic.toml"

// Paths contains directory and file locations. Relative values resolve
// against Root, and Root itself resolves against the config file directory.
type Paths struct {
	Root     string `toml:"root"`
	Manifest string `toml:"manifest"`
	LogDir   string `toml:"log_dir"`
}

// Manifest contains hashing settings shared by the build and registry.
type Manifest struct {
	HashLength int    `toml:"hash_length"`
	Algorithm  string `toml:"algorithm"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// ResourceType is one named registry resource family.
type ResourceType struct {
	Kind    string `toml:"kind"`
	URLPath string `toml:"url_path"`
	FSPath  string `toml:"fs_path"`
	AddHash bool   `toml:"add_hash"`
	Ext     string `toml:"ext"`
}

// Registry configures asset reference resolution.
type Registry struct {
	URLPath    string                  `toml:"url_path"`
	FSPath     string                  `toml:"fs_path"`
	Domain     string                  `toml:"domain"`
	HashLength int                     `toml:"hash_length"`
	Types      map[string]ResourceType `toml:"types"`
}

// Watch configures the rebuild-on-change loop.
type Watch struct {
	DebounceMillis int      `toml:"debounce_ms"`
	Dirs           []string `toml:"dirs"`
}

// Replacement is one literal substitution of a bundle.
type Replacement struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// Bundle describes one output asset and the stages that produce it.
type Bundle struct {
	Name     string        `toml:"name"`
	Inputs   []string      `toml:"inputs"`
	Output   string        `toml:"output"`
	Minify   string        `toml:"minify"`
	Markdown bool          `toml:"markdown"`
	Replace  []Replacement `toml:"replace"`
	Makedirs bool          `toml:"makedirs"`
	Hash     *bool         `toml:"hash"`
	Gzip     bool          `toml:"gzip"`
}

// Hashed reports whether the bundle output gets a hashed name. Hashing is on
// unless explicitly disabled.
func (b Bundle) Hashed() bool { return b.Hash == nil || *b.Hash }

// Config encapsulates all configuration values for webstatic.
//
// Configuration sections:
//   - Paths: project root, manifest file and log directory
//   - Manifest: hash prefix length and digest algorithm
//   - Logging: log format and level
//   - Registry: URL prefix, domain and resource types
//   - Watch: debounce interval and extra watched directories
//   - Bundles: ordered build steps
type Config struct {
	Paths    Paths    `toml:"paths"`
	Manifest Manifest `toml:"manifest"`
	Logging  Logging  `toml:"logging"`
	Registry Registry `toml:"registry"`
	Watch    Watch    `toml:"watch"`
	Bundles  []Bundle `toml:"bundles"`
}

// DefaultConfigPath returns the absolute path to the user-level configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/webstatic/config.toml")
}

// Load locates, parses, normalizes and validates a configuration file. The
// lookup order is the explicit path, ./webstatic.toml, then the user-level
// file. A missing file yields defaults rooted at the working directory.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return nil, "", false, fmt.Errorf("resolve working directory: %w", err)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
		baseDir = filepath.Dir(resolvedPath)
	}

	if err := cfg.Normalize(baseDir); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs(ProjectConfigName)
	if err != nil {
		return "", false, err
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return projectPath, false, nil
}

// Bundle returns the bundle with the given name.
func (c *Config) Bundle(name string) (Bundle, bool) {
	for _, b := range c.Bundles {
		if b.Name == name {
			return b, true
		}
	}
	return Bundle{}, false
}

// BundleNames lists bundle names in configuration order.
func (c *Config) BundleNames() []string {
	names := make([]string, 0, len(c.Bundles))
	for _, b := range c.Bundles {
		names = append(names, b.Name)
	}
	return names
}

// LockPath returns the advisory lock file guarding the manifest.
func (c *Config) LockPath() string {
	return c.Paths.Manifest + ".lock"
}

// EnsureDirectories creates the directories the build writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Paths.Manifest)}
	if c.Paths.LogDir != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// resolvePath expands a tilde and anchors relative paths at base.
func resolvePath(base, pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if !strings.HasPrefix(pathValue, "~") && !filepath.IsAbs(pathValue) {
		pathValue = filepath.Join(base, pathValue)
	}
	return expandPath(pathValue)
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
