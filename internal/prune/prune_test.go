package prune

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"webstatic/internal/logging"
	"webstatic/internal/manifest"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if age > 0 {
		when := time.Now().Add(-age)
		if err := os.Chtimes(path, when, when); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
}

func TestRunRemovesSupersededOnly(t *testing.T) {
	dir := t.TempDir()
	m := manifest.New(dir, 6)
	m.Set("site.css", "abcdef0123456789")
	m.Set("README", "0123456789")

	for _, name := range []string{
		"site.abcdef.css",    // current
		"site.111111.css",    // superseded
		"site.111111.css.gz", // superseded sibling
		"site.1111.css",      // wrong fragment length
		"site.css",           // unhashed
		"sites.222222.css",   // different stem
		"site.zzzzzz.css",    // not hex
		"README.012345",      // current
		"README.999999",      // superseded, extensionless
	} {
		touch(t, filepath.Join(dir, name), 0)
	}

	result := Run(context.Background(), m, Options{Logger: logging.NewNop()})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	want := []string{
		filepath.Join(dir, "README.999999"),
		filepath.Join(dir, "site.111111.css"),
		filepath.Join(dir, "site.111111.css.gz"),
	}
	got := append([]string(nil), result.Removed...)
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Fatalf("want removed %v, got %v", want, got)
	}
	for _, kept := range []string{"site.abcdef.css", "site.1111.css", "site.css", "sites.222222.css", "site.zzzzzz.css", "README.012345"} {
		if _, err := os.Stat(filepath.Join(dir, kept)); err != nil {
			t.Fatalf("expected %s kept: %v", kept, err)
		}
	}
	if result.Bytes != 3 {
		t.Fatalf("expected 3 bytes reclaimed, got %d", result.Bytes)
	}
}

func TestRunDryRunAndMinAge(t *testing.T) {
	dir := t.TempDir()
	m := manifest.New(dir, 6)
	m.Set("app.js", "aaaaaa")
	old := filepath.Join(dir, "app.bbbbbb.js")
	fresh := filepath.Join(dir, "app.cccccc.js")
	touch(t, old, 2*time.Hour)
	touch(t, fresh, 0)

	result := Run(context.Background(), m, Options{DryRun: true, MinAge: time.Hour})
	if !slices.Equal(result.Removed, []string{old}) {
		t.Fatalf("unexpected dry-run candidates %v", result.Removed)
	}
	if _, err := os.Stat(old); err != nil {
		t.Fatalf("dry run must not delete: %v", err)
	}
}

func TestRunMissingDirectory(t *testing.T) {
	m := manifest.New("/nonexistent/path/12345", 6)
	m.Set("a.css", "abcdef")
	result := Run(context.Background(), m, Options{})
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestSupersededPatternLeadingDot(t *testing.T) {
	re, err := superseded("/x/.htaccess", 4)
	if err != nil {
		t.Fatalf("superseded returned error: %v", err)
	}
	if !re.MatchString(".htaccess.abcd") || re.MatchString(".abcd.htaccess") {
		t.Fatalf("unexpected pattern %s", re)
	}
}
