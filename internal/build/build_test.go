package build_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"webstatic/internal/build"
	"webstatic/internal/config"
	"webstatic/internal/logging"
	"webstatic/internal/manifest"
	"webstatic/internal/registry"
	"webstatic/internal/testsupport"
)

func boolPtr(v bool) *bool { return &v }

func newBuilder(t *testing.T, cfg *config.Config, opts ...build.Option) *build.Builder {
	t.Helper()
	b, err := build.New(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("build.New returned error: %v", err)
	}
	return b
}

func TestRunBuildsHashedBundleAndSavesManifest(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithHashLength(10),
		testsupport.WithBundle(config.Bundle{
			Name:     "site-css",
			Inputs:   []string{"assets/a.css", "assets/b.css"},
			Output:   "static/css/site.css",
			Makedirs: true,
			Replace:  []config.Replacement{{From: "@COLOR@", To: "red"}},
			Gzip:     true,
		}),
	)
	root := testsupport.BaseDir(cfg)
	testsupport.WriteFile(t, filepath.Join(root, "assets", "a.css"), "a{color:@COLOR@}")
	testsupport.WriteFile(t, filepath.Join(root, "assets", "b.css"), "b{}")

	summary, err := newBuilder(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.RunID == "" || len(summary.Results) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	res := summary.Results[0]
	if len(res.Hash) != 10 {
		t.Fatalf("expected 10 char hash prefix, got %q", res.Hash)
	}
	want := filepath.Join(root, "static", "css", "site."+res.Hash+".css")
	if res.Written != want {
		t.Fatalf("expected written path %q, got %q", want, res.Written)
	}
	if got := testsupport.ReadFile(t, res.Written); got != "a{color:red}b{}" {
		t.Fatalf("unexpected content %q", got)
	}
	if got := testsupport.ReadFile(t, res.Written+".gz"); got == "" {
		t.Fatal("expected gzip sibling")
	}

	m, err := manifest.Open(cfg.Paths.Manifest, 10)
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	if got, err := m.Get("css/site.css"); err != nil || got != res.Hash {
		t.Fatalf("manifest lookup relative to static root: %q err=%v", got, err)
	}
}

func TestRunMinifiesAndSkipsHashWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBundle(config.Bundle{
			Name:   "plain",
			Inputs: []string{"in.css"},
			Output: "out.css",
			Minify: "css",
			Hash:   boolPtr(false),
		}),
	)
	root := testsupport.BaseDir(cfg)
	testsupport.WriteFile(t, filepath.Join(root, "in.css"), "Hello,cssmin\n* {margin: 0 0 0 0; padding: 0;}")

	summary, err := newBuilder(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	res := summary.Results[0]
	if res.Written != filepath.Join(root, "out.css") || res.Hash != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := testsupport.ReadFile(t, res.Written); got != "Hello,cssmin *{margin:0;padding:0}" {
		t.Fatalf("unexpected minified css %q", got)
	}
	testsupport.AssertMissing(t, cfg.Paths.Manifest)
}

func TestRunMarkdownBundle(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBundle(config.Bundle{
			Name:     "about",
			Inputs:   []string{"about.md"},
			Output:   "about.html",
			Markdown: true,
			Hash:     boolPtr(false),
		}),
	)
	root := testsupport.BaseDir(cfg)
	testsupport.WriteFile(t, filepath.Join(root, "about.md"), "# About\n")

	if _, err := newBuilder(t, cfg).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := testsupport.ReadFile(t, filepath.Join(root, "about.html")); !strings.Contains(got, "<h1>About</h1>") {
		t.Fatalf("unexpected html %q", got)
	}
}

func TestRunSelectsNamedBundles(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBundle(config.Bundle{Name: "one", Inputs: []string{"1.txt"}, Output: "o1.txt", Hash: boolPtr(false)}),
		testsupport.WithBundle(config.Bundle{Name: "two", Inputs: []string{"2.txt"}, Output: "o2.txt", Hash: boolPtr(false)}),
	)
	root := testsupport.BaseDir(cfg)
	testsupport.WriteFile(t, filepath.Join(root, "2.txt"), "two")

	summary, err := newBuilder(t, cfg).Run(context.Background(), "two")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(summary.Results) != 1 || summary.Results[0].Bundle != "two" {
		t.Fatalf("unexpected results %+v", summary.Results)
	}
	testsupport.AssertMissing(t, filepath.Join(root, "o1.txt"))

	if _, err := newBuilder(t, cfg).Run(context.Background(), "three"); !errors.Is(err, build.ErrUnknownBundle) {
		t.Fatalf("expected ErrUnknownBundle, got %v", err)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBundle(config.Bundle{Name: "broken", Inputs: []string{"missing.css"}, Output: "a.css"}),
		testsupport.WithBundle(config.Bundle{Name: "fine", Inputs: []string{"ok.css"}, Output: "b.css"}),
	)
	root := testsupport.BaseDir(cfg)
	testsupport.WriteFile(t, filepath.Join(root, "ok.css"), "ok")

	summary, err := newBuilder(t, cfg).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), `bundle "broken"`) {
		t.Fatalf("expected failure naming the bundle, got %v", err)
	}
	if summary == nil || len(summary.Results) != 0 {
		t.Fatalf("expected empty partial summary, got %+v", summary)
	}
	testsupport.AssertMissing(t, filepath.Join(root, "b.css"))
}

func TestRunRefusesWhenLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBundle(config.Bundle{Name: "one", Inputs: []string{"1.txt"}, Output: "o1.txt"}),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("failed to take lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	if _, err := newBuilder(t, cfg).Run(context.Background()); !errors.Is(err, build.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	_, err = newBuilder(t, cfg, build.WithLockWait(120*time.Millisecond)).Run(context.Background())
	if !errors.Is(err, build.ErrLocked) {
		t.Fatalf("expected ErrLocked after waiting, got %v", err)
	}
}

func TestStagesOrder(t *testing.T) {
	stages, err := build.Stages(config.Bundle{
		Name:     "all",
		Inputs:   []string{"/a", "/b"},
		Output:   "/out.js",
		Markdown: true,
		Replace:  []config.Replacement{{From: "x", To: "y"}},
		Minify:   "js",
		Gzip:     true,
	}, manifest.New("/", 6), "")
	if err != nil {
		t.Fatalf("Stages returned error: %v", err)
	}
	var names []string
	for _, s := range stages {
		names = append(names, s.Name())
	}
	want := "input,concat,markdown,replace,jsmin,output,gzip"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("want %s, got %s", want, got)
	}

	if _, err := build.Stages(config.Bundle{Name: "x", Inputs: []string{"/a"}, Output: "/o", Minify: "png"}, nil, ""); err == nil {
		t.Fatal("expected error for unsupported minifier")
	}
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	cfg := config.Default()
	cfg.Manifest.Algorithm = "md5"
	if _, err := build.New(&cfg, nil); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestBuiltOutputResolvesThroughRegistry(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithAlgorithm("blake3"),
		testsupport.WithRegistryType("js", config.ResourceType{Kind: "js", URLPath: "js", FSPath: "js", AddHash: true}),
		testsupport.WithBundle(config.Bundle{
			Name:     "app",
			Inputs:   []string{"src/app.js"},
			Output:   "static/js/app.js",
			Makedirs: true,
		}),
	)
	root := testsupport.BaseDir(cfg)
	testsupport.WriteFile(t, filepath.Join(root, "src", "app.js"), "console.log(1)")

	summary, err := newBuilder(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	hash := summary.Results[0].Hash

	m, err := manifest.Open(cfg.Paths.Manifest, 0)
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	full, ok := m.Lookup("js/app.js")
	if !ok || len(full) != 64 || full[:len(hash)] != hash {
		t.Fatalf("expected 64 hex blake3 digest starting with %q, got %q", hash, full)
	}

	rt := cfg.Registry.Types["js"]
	reg := registry.New(registry.Options{
		URLPath:    cfg.Registry.URLPath,
		FSPath:     cfg.Registry.FSPath,
		HashLength: cfg.Registry.HashLength,
		Types:      map[string]registry.ResourceType{"js": registry.JS(rt.URLPath, rt.FSPath, rt.AddHash)},
	})
	if err := reg.LoadManifest(); err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	res, err := reg.Resource("js", "app.js", registry.WithDefer())
	if err != nil {
		t.Fatalf("Resource: %v", err)
	}
	if res.URLPath != "/static/js/app."+hash+".js" {
		t.Fatalf("unexpected url path %q", res.URLPath)
	}
	if res.FSPath != summary.Results[0].Written {
		t.Fatalf("registry fs path %q differs from written %q", res.FSPath, summary.Results[0].Written)
	}
}
