package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testConfig = `[paths]
manifest = "static/manifest"

[manifest]
hash_length = 6

[logging]
level = "error"

[registry]
url_path = "/static/"
fs_path = "static"
domain = "cdn.example.com"

[registry.types.css]
kind = "css"
url_path = "css"
fs_path = "css"
add_hash = true

[registry.types.favicon]
kind = "favicon"
fs_path = "img"

[[bundles]]
name = "site-css"
inputs = ["assets/a.css", "assets/b.css"]
output = "static/css/site.css"
minify = "css"
makedirs = true
gzip = true
`

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("WEBSTATIC_LOG_LEVEL", "")

	configPath := filepath.Join(base, "webstatic.toml")
	writeTestFile(t, configPath, testConfig)
	writeTestFile(t, filepath.Join(base, "assets", "a.css"), "a { color: red; }\n")
	writeTestFile(t, filepath.Join(base, "assets", "b.css"), "b { margin: 0 0 0 0; }\n")

	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
