package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManifest() *Manifest {
	return NewFile("/root/manifest", 3)
}

func TestGetSet(t *testing.T) {
	m := newTestManifest()
	m.Set("some/path.obj", strings.Repeat("123", 10))

	got, err := m.Get("/root/some/path.obj")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "123" {
		t.Fatalf("unexpected prefix: %q", got)
	}
	full, ok := m.Lookup("some/path.obj")
	if !ok || full != strings.Repeat("123", 10) {
		t.Fatalf("expected full hash to be stored, got %q ok=%v", full, ok)
	}
}

func TestLoad(t *testing.T) {
	m := newTestManifest()
	if err := m.Load(bytes.NewBufferString("abc  def/obj\nghi  jkl/mn\n\n  \n")); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	for key, want := range map[string]string{
		"def/obj":       "abc",
		"/root/def/obj": "abc",
		"jkl/mn":        "ghi",
		"/root/jkl/mn":  "ghi",
	} {
		got, err := m.Get(key)
		if err != nil {
			t.Fatalf("Get(%q): %v", key, err)
		}
		if got != want {
			t.Fatalf("Get(%q) = %q, want %q", key, got, want)
		}
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
}

func TestLoadsRootScenario(t *testing.T) {
	m := New("/root", 3)
	if err := m.Loads("abc  def/obj"); err != nil {
		t.Fatalf("Loads returned error: %v", err)
	}
	for _, key := range []string{"/root/def/obj", "def/obj"} {
		got, err := m.Get(key)
		if err != nil || got != "abc" {
			t.Fatalf("Get(%q) = %q, %v", key, got, err)
		}
	}
	if _, err := m.Get("/def/obj"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDump(t *testing.T) {
	m := newTestManifest()
	one := "12345678903232323323232399292382378126128368291369"
	two := "234892349023840234728346753469863986234782693423649322242"
	m.Set("one", one)
	m.Set("two", two)

	if got, _ := m.Get("one"); got != "123" {
		t.Fatalf("unexpected prefix for one: %q", got)
	}
	if got, _ := m.Get("two"); got != "234" {
		t.Fatalf("unexpected prefix for two: %q", got)
	}

	var buf bytes.Buffer
	if err := m.Dump(&buf); err != nil {
		t.Fatalf("Dump returned error: %v", err)
	}
	want := one + "  one\n" + two + "  two"
	if buf.String() != want {
		t.Fatalf("unexpected dump:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestDumps(t *testing.T) {
	m := newTestManifest()
	m.Set("/root/def", "abc")
	if got := m.Dumps(); got != "abc  def" {
		t.Fatalf("unexpected dumps: %q", got)
	}
}

func TestRoundTripPreservesOrderAndFullHashes(t *testing.T) {
	src := "ffff0000aaaa  b/second.js\n0000ffffbbbb  a/first.css\n1234  c.txt"
	m := New("/srv/static", 4)
	if err := m.Loads(src); err != nil {
		t.Fatalf("Loads: %v", err)
	}
	if got := m.Dumps(); got != src {
		t.Fatalf("round trip mismatch:\n%s\nwant:\n%s", got, src)
	}
}

func TestLastWriteWinsKeepsFirstPosition(t *testing.T) {
	m := New("/srv", 0)
	m.Set("a.css", "111")
	m.Set("b.css", "222")
	m.Set("/srv/a.css", "333")
	if got := m.Dumps(); got != "333  a.css\n222  b.css" {
		t.Fatalf("unexpected order: %q", got)
	}
	if err := m.Loads("444  b.css\n555  b.css"); err != nil {
		t.Fatalf("Loads: %v", err)
	}
	if got, _ := m.Get("b.css"); got != "555" {
		t.Fatalf("expected later duplicate to win, got %q", got)
	}
}

func TestGetLength(t *testing.T) {
	tests := []struct {
		hashLength int
		full       string
		want       string
	}{
		{3, "abcdef", "abc"},
		{10, "abcdef", "abcdef"},
		{0, "abcdef", "abcdef"},
		{-1, "abcdef", "abcdef"},
	}
	for _, tc := range tests {
		m := New("/srv", tc.hashLength)
		m.Set("x", tc.full)
		got, err := m.Get("x")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != tc.want {
			t.Fatalf("hashLength %d: got %q want %q", tc.hashLength, got, tc.want)
		}
	}
}

func TestLoadMalformedLeavesManifestUntouched(t *testing.T) {
	m := New("/srv", 3)
	m.Set("keep", "abcdef")

	err := m.Loads("aaa  ok\nonly-one-column\nbbb  later")
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line number in error, got %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected manifest to be unchanged, got %d entries", m.Len())
	}
	if err := m.Loads("a b c"); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord for three columns, got %v", err)
	}
}

func TestSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest")

	m, err := Open(path, 6)
	if err != nil {
		t.Fatalf("Open missing file: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty manifest, got %d", m.Len())
	}
	m.Set(filepath.Join(dir, "css", "site.css"), "deadbeefbadf00d")
	m.Set("js/app.js", "0123456789")
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "deadbeefbadf00d  css/site.css\n0123456789  js/app.js" {
		t.Fatalf("unexpected manifest file: %q", raw)
	}

	reopened, err := Open(path, 6)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got, _ := reopened.Get("css/site.css"); got != "deadbe" {
		t.Fatalf("unexpected prefix after reopen: %q", got)
	}
	if reopened.Root() != dir {
		t.Fatalf("unexpected root %q", reopened.Root())
	}
}

func TestInMemoryManifestHasNoFile(t *testing.T) {
	m := New("/srv", 3)
	if err := m.Save(); err == nil {
		t.Fatal("expected Save to fail without a backing file")
	}
	if err := m.LoadFile(); err == nil {
		t.Fatal("expected LoadFile to fail without a backing file")
	}
}

func TestEntries(t *testing.T) {
	m := New("/srv", 3)
	m.Set("b/x.css", "bbb")
	m.Set("/srv/a/y.js", "aaa")
	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "/srv/b/x.css" || entries[0].Rel != "b/x.css" || entries[0].Hash != "bbb" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Rel != "a/y.js" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}
