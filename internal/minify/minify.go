// Package minify adapts third-party CSS, JavaScript and HTML minifiers to the
// byte-in, byte-out shape pipeline stages consume.
package minify

import (
	"fmt"
	"regexp"
	"sync"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// Func transforms source text into its minified form.
type Func func([]byte) ([]byte, error)

const (
	mediaCSS  = "text/css"
	mediaJS   = "application/javascript"
	mediaHTML = "text/html"
)

// The minifier set is configured once and shared; tdewolff's M is safe for
// concurrent use.
var (
	minifierInstance *tdminify.M
	minifierOnce     sync.Once
)

func minifier() *tdminify.M {
	minifierOnce.Do(func() {
		m := tdminify.New()
		m.AddFunc(mediaCSS, minifyCSS)
		m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
		m.Add(mediaHTML, &html.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
		minifierInstance = m
	})
	return minifierInstance
}

func run(mediatype string, src []byte) ([]byte, error) {
	out, err := minifier().Bytes(mediatype, src)
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", mediatype, err)
	}
	return out, nil
}

// CSS minifies a stylesheet. Selector identifiers keep their source case.
func CSS(src []byte) ([]byte, error) { return run(mediaCSS, src) }

// JS minifies a script.
func JS(src []byte) ([]byte, error) { return run(mediaJS, src) }

// HTML collapses inter-tag whitespace while keeping end tags, attribute
// quotes and <pre> content intact. Embedded <style> and <script> bodies are
// minified too.
func HTML(src []byte) ([]byte, error) { return run(mediaHTML, src) }

// ByName returns the minifier for a configuration value ("css", "js", "html").
func ByName(name string) (Func, bool) {
	switch name {
	case "css":
		return CSS, true
	case "js":
		return JS, true
	case "html":
		return HTML, true
	default:
		return nil, false
	}
}
