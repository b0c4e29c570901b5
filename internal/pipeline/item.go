package pipeline

import (
	"errors"
	"fmt"
	"os"
)

// ErrNoContent reports a stage that needs bytes from an item carrying neither
// data nor a path.
var ErrNoContent = errors.New("item has no content")

// Item is the value threaded between stages. Data is nil when absent, in
// which case stages needing bytes read them from Path. Paths is set only by
// Input and consumed by Concat.
type Item struct {
	Path  string
	Paths []string
	Data  []byte
}

// HasData reports whether the item carries in-memory content.
func (it Item) HasData() bool { return it.Data != nil }

// Content returns the item's bytes, reading Path when Data is absent.
func (it Item) Content() ([]byte, error) {
	if it.Data != nil {
		return it.Data, nil
	}
	if it.Path == "" {
		return nil, ErrNoContent
	}
	data, err := os.ReadFile(it.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", it.Path, err)
	}
	return data, nil
}

// WithData returns a copy of the item carrying data, keeping its path
// identity.
func (it Item) WithData(data []byte) Item {
	if data == nil {
		data = []byte{}
	}
	it.Data = data
	return it
}
