// Package manifest maintains the persistent mapping from logical asset paths
// to content hashes.
//
// The on-disk format is plain text, one record per line:
//
//	<full hex hash><two spaces><path relative to the manifest root>
//
// Blank lines are ignored when reading and no trailing newline is written.
// Keys are normalized to absolute paths, so a relative key and its
// root-joined absolute form address the same record. Full hashes are stored;
// truncation to the configured hash length happens only on lookup.
//
// A Manifest carries no internal locking. Callers that share one across
// goroutines or processes must serialize Set, Load and Save themselves.
package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"webstatic/internal/fileutil"
)

var (
	// ErrNotFound reports a key with no record after normalization.
	ErrNotFound = errors.New("manifest entry not found")
	// ErrMalformedRecord reports a line that is not exactly two columns.
	ErrMalformedRecord = errors.New("malformed manifest record")
)

const fileMode = 0o644

// Entry is one manifest record in serialization order.
type Entry struct {
	Key  string
	Rel  string
	Hash string
}

// Manifest maps normalized absolute paths to full content hashes.
type Manifest struct {
	root       string
	path       string
	hashLength int

	order  []string
	hashes map[string]string
}

// New returns an empty manifest whose relative keys resolve under root.
// A hashLength <= 0 disables truncation on lookup.
func New(root string, hashLength int) *Manifest {
	return &Manifest{
		root:       absPath(root),
		hashLength: hashLength,
		hashes:     make(map[string]string),
	}
}

// NewFile returns an empty manifest backed by the file at path. Relative keys
// resolve under the directory containing that file.
func NewFile(path string, hashLength int) *Manifest {
	path = absPath(path)
	m := New(filepath.Dir(path), hashLength)
	m.path = path
	return m
}

// Open loads the manifest file at path. A missing file yields an empty
// manifest so the first build can create it.
func Open(path string, hashLength int) (*Manifest, error) {
	m := NewFile(path, hashLength)
	if err := m.LoadFile(); err != nil {
		return nil, err
	}
	return m, nil
}

// Root returns the directory relative keys resolve against.
func (m *Manifest) Root() string { return m.root }

// Path returns the backing file, or "" for an in-memory manifest.
func (m *Manifest) Path() string { return m.path }

// HashLength returns the lookup truncation length.
func (m *Manifest) HashLength() int { return m.hashLength }

// Len returns the number of records.
func (m *Manifest) Len() int { return len(m.order) }

// Get returns the hash prefix recorded for key.
func (m *Manifest) Get(key string) (string, error) {
	full, ok := m.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return m.Truncate(full), nil
}

// Lookup returns the full hash recorded for key.
func (m *Manifest) Lookup(key string) (string, bool) {
	full, ok := m.hashes[m.normalize(key)]
	return full, ok
}

// Set records the full hash for key. Overwriting keeps the key's original
// position in serialization order.
func (m *Manifest) Set(key, fullHash string) {
	m.put(m.normalize(key), fullHash)
}

// Truncate applies the configured hash length to a full hash.
func (m *Manifest) Truncate(fullHash string) string {
	if m.hashLength <= 0 || m.hashLength >= len(fullHash) {
		return fullHash
	}
	return fullHash[:m.hashLength]
}

// Entries returns a snapshot of all records in insertion order.
func (m *Manifest) Entries() []Entry {
	entries := make([]Entry, 0, len(m.order))
	for _, key := range m.order {
		entries = append(entries, Entry{Key: key, Rel: m.rel(key), Hash: m.hashes[key]})
	}
	return entries
}

// Load merges records read from r. The manifest is left untouched when any
// line is malformed.
func (m *Manifest) Load(r io.Reader) error {
	type record struct{ key, hash string }
	var staged []record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("%w: line %d: expected 2 columns, got %d", ErrMalformedRecord, lineNo, len(fields))
		}
		staged = append(staged, record{
			key:  m.normalize(filepath.FromSlash(fields[1])),
			hash: fields[0],
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	for _, rec := range staged {
		m.put(rec.key, rec.hash)
	}
	return nil
}

// Loads is Load over an in-memory string.
func (m *Manifest) Loads(text string) error {
	return m.Load(strings.NewReader(text))
}

// Dump writes every record to w in insertion order with no trailing newline.
func (m *Manifest) Dump(w io.Writer) error {
	_, err := io.WriteString(w, m.Dumps())
	return err
}

// Dumps returns the serialized manifest.
func (m *Manifest) Dumps() string {
	var buf bytes.Buffer
	for i, key := range m.order {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(m.hashes[key])
		buf.WriteString("  ")
		buf.WriteString(m.rel(key))
	}
	return buf.String()
}

// LoadFile merges the records stored in the backing file. A missing file is
// not an error.
func (m *Manifest) LoadFile() error {
	if m.path == "" {
		return errors.New("manifest has no backing file")
	}
	f, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	if err := m.Load(f); err != nil {
		return fmt.Errorf("%s: %w", m.path, err)
	}
	return nil
}

// Save fully rewrites the backing file with the current records.
func (m *Manifest) Save() error {
	if m.path == "" {
		return errors.New("manifest has no backing file")
	}
	if err := fileutil.WriteFileAtomic(m.path, []byte(m.Dumps()), fileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func (m *Manifest) put(key, hash string) {
	if _, exists := m.hashes[key]; !exists {
		m.order = append(m.order, key)
	}
	m.hashes[key] = hash
}

func (m *Manifest) normalize(key string) string {
	if filepath.IsAbs(key) {
		return filepath.Clean(key)
	}
	return filepath.Join(m.root, key)
}

func (m *Manifest) rel(key string) string {
	rel, err := filepath.Rel(m.root, key)
	if err != nil {
		return filepath.ToSlash(key)
	}
	return filepath.ToSlash(rel)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
