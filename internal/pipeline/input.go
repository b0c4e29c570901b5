package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
)

type inputItemStage struct {
	path string
	data []byte
}

// InputItem seeds the run with a single source. When data is nil the content
// is read lazily from path by whichever stage needs bytes; otherwise path only
// names the item.
func InputItem(path string, data []byte) Stage {
	return inputItemStage{path: path, data: data}
}

func (inputItemStage) Name() string { return "input_item" }

func (s inputItemStage) Process(context.Context, Item) (Item, error) {
	item := Item{Path: s.path}
	if s.data != nil {
		item.Data = append([]byte{}, s.data...)
	}
	return item, nil
}

type inputStage struct {
	paths []string
}

// Input seeds the run with several source files for a later Concat.
func Input(paths ...string) Stage {
	return inputStage{paths: append([]string(nil), paths...)}
}

func (inputStage) Name() string { return "input" }

func (s inputStage) Process(context.Context, Item) (Item, error) {
	if len(s.paths) == 0 {
		return Item{}, fmt.Errorf("input: %w: no paths given", ErrNoContent)
	}
	return Item{Paths: append([]string(nil), s.paths...)}, nil
}

type concatStage struct{}

// Concat reads every path of a multi-path item in order and joins the bytes
// with no separator. The result carries no path.
func Concat() Stage { return concatStage{} }

func (concatStage) Name() string { return "concat" }

func (concatStage) Process(_ context.Context, in Item) (Item, error) {
	paths := in.Paths
	if len(paths) == 0 && in.Path != "" {
		paths = []string{in.Path}
	}
	if len(paths) == 0 {
		return Item{}, ErrNoContent
	}

	var buf bytes.Buffer
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return Item{}, fmt.Errorf("read %s: %w", path, err)
		}
		buf.Write(data)
	}
	return Item{}.WithData(buf.Bytes()), nil
}
