package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"webstatic/internal/minify"
)

// Replacement is one literal substitution applied by Replace.
type Replacement struct {
	Old string
	New string
}

type replaceStage struct {
	pairs []Replacement
}

// Replace applies each pair as a case-sensitive literal substitution of every
// non-overlapping occurrence, scanning left to right. Pairs apply in the given
// order, so a later pair sees the output of earlier ones.
func Replace(pairs ...Replacement) Stage {
	return replaceStage{pairs: append([]Replacement(nil), pairs...)}
}

func (replaceStage) Name() string { return "replace" }

func (s replaceStage) Process(_ context.Context, in Item) (Item, error) {
	data, err := in.Content()
	if err != nil {
		return Item{}, err
	}
	for _, pair := range s.pairs {
		if pair.Old == "" {
			continue
		}
		data = bytes.ReplaceAll(data, []byte(pair.Old), []byte(pair.New))
	}
	return in.WithData(data), nil
}

type minifyStage struct {
	name string
	fn   minify.Func
}

// Minify passes the item's content through fn.
func Minify(name string, fn minify.Func) Stage {
	return minifyStage{name: name, fn: fn}
}

// CSSMin minifies stylesheet content.
func CSSMin() Stage { return Minify("cssmin", minify.CSS) }

// JSMin minifies script content.
func JSMin() Stage { return Minify("jsmin", minify.JS) }

// HTMLMin minifies markup content.
func HTMLMin() Stage { return Minify("htmlmin", minify.HTML) }

func (s minifyStage) Name() string { return s.name }

func (s minifyStage) Process(_ context.Context, in Item) (Item, error) {
	if s.fn == nil {
		return Item{}, fmt.Errorf("%s: no minifier configured", s.name)
	}
	data, err := in.Content()
	if err != nil {
		return Item{}, err
	}
	out, err := s.fn(data)
	if err != nil {
		return Item{}, err
	}
	return in.WithData(out), nil
}

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdownRenderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownInstance
}

type markdownStage struct{}

// Markdown renders Markdown content to an HTML fragment using GitHub
// flavoured extensions.
func Markdown() Stage { return markdownStage{} }

func (markdownStage) Name() string { return "markdown" }

func (markdownStage) Process(_ context.Context, in Item) (Item, error) {
	data, err := in.Content()
	if err != nil {
		return Item{}, err
	}
	var buf bytes.Buffer
	if err := markdownRenderer().Convert(data, &buf); err != nil {
		return Item{}, fmt.Errorf("render markdown: %w", err)
	}
	return in.WithData(buf.Bytes()), nil
}
