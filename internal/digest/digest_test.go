package digest

import "testing"

func TestSumKnownVectors(t *testing.T) {
	if got := SHA1.Sum([]byte("abc")); got != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Fatalf("unexpected sha1: %s", got)
	}
	if got := SHA1.Sum(nil); got != "da39a3ee5e6b4b0d3255bfef95601890afd80709" {
		t.Fatalf("unexpected sha1 of empty input: %s", got)
	}
	if got := BLAKE3.Sum([]byte("abc")); len(got) != BLAKE3.Size() {
		t.Fatalf("unexpected blake3 length %d", len(got))
	}
	if BLAKE3.Sum([]byte("abc")) == BLAKE3.Sum([]byte("abd")) {
		t.Fatal("expected distinct digests for distinct input")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", SHA1, false},
		{"sha1", SHA1, false},
		{" BLAKE3 ", BLAKE3, false},
		{"md5", "", true},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInsertFragment(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"out.css", "out.abc.css"},
		{"/var/static/i/test2.png", "/var/static/i/test2.abc.png"},
		{"/static/cssroot/style<s.css", "/static/cssroot/style<s.abc.css"},
		{"bundle.min.js", "bundle.min.abc.js"},
		{"LICENSE", "LICENSE.abc"},
		{"dir.d/LICENSE", "dir.d/LICENSE.abc"},
		{".htaccess", ".htaccess.abc"},
		{"conf/.env.local", "conf/.env.abc.local"},
	}
	for _, tc := range tests {
		if got := InsertFragment(tc.path, "abc"); got != tc.want {
			t.Errorf("InsertFragment(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
	if got := InsertFragment("out.css", ""); got != "out.css" {
		t.Fatalf("empty fragment should leave path unchanged, got %q", got)
	}
}
