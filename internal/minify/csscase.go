package minify

import (
	"bytes"
	"io"
	"strings"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/parse/v2"
	tdcss "github.com/tdewolff/parse/v2/css"
)

// minifyCSS runs tdewolff's CSS minifier and then writes selector identifiers
// back in their source case. tdewolff lowercases type selectors, which breaks
// stylesheets that target case-sensitive names (XML documents, custom
// elements registered with mixed case, plain text that only looks like CSS).
func minifyCSS(m *tdminify.M, w io.Writer, r io.Reader, params map[string]string) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := css.Minify(m, &buf, bytes.NewReader(src), params); err != nil {
		return err
	}
	out := buf.Bytes()
	if params["inline"] != "1" {
		restoreSelectorCase(src, out)
	}
	_, err = w.Write(out)
	return err
}

// selectorIdent is an identifier token inside a ruleset prelude.
type selectorIdent struct {
	offset int
	data   []byte
}

// restoreSelectorCase rewrites out in place. Output selector identifiers are
// matched against source identifiers in order; rules the minifier dropped are
// skipped over.
func restoreSelectorCase(src, out []byte) {
	want := selectorIdents(src)
	got := selectorIdents(out)
	i := 0
	for _, g := range got {
		for i < len(want) && !bytes.EqualFold(want[i].data, g.data) {
			i++
		}
		if i == len(want) {
			return
		}
		if len(want[i].data) == len(g.data) {
			copy(out[g.offset:], want[i].data)
		}
		i++
	}
}

// ruleBlockAtRules hold rulesets rather than declarations.
var ruleBlockAtRules = []string{"media", "supports", "document", "container", "layer", "scope", "starting-style", "keyframes"}

func holdsRules(atName string) bool {
	name := strings.ToLower(strings.TrimPrefix(atName, "@"))
	for _, r := range ruleBlockAtRules {
		if strings.HasSuffix(name, r) {
			return true
		}
	}
	return false
}

// selectorIdents lexes b and returns the identifiers that appear in selector
// preludes, outside attribute brackets, with their byte offsets.
func selectorIdents(b []byte) []selectorIdent {
	lexer := tdcss.NewLexer(parse.NewInputBytes(b[:len(b):len(b)]))

	var (
		idents  []selectorIdent
		pending []selectorIdent
		blocks  = []bool{true} // true: block holds rules
		atRule  string
		started bool
		bracket int
		offset  int
	)
	for {
		tt, data := lexer.Next()
		if tt == tdcss.ErrorToken {
			return idents
		}
		start := offset
		offset += len(data)

		inRules := blocks[len(blocks)-1]
		switch tt {
		case tdcss.LeftBraceToken:
			switch {
			case !inRules:
				blocks = append(blocks, false)
			case atRule != "":
				blocks = append(blocks, holdsRules(atRule))
			default:
				idents = append(idents, pending...)
				blocks = append(blocks, false)
			}
			pending, atRule, started, bracket = nil, "", false, 0
			continue
		case tdcss.RightBraceToken:
			if len(blocks) > 1 {
				blocks = blocks[:len(blocks)-1]
			}
			pending, atRule, started, bracket = nil, "", false, 0
			continue
		}
		if !inRules {
			continue
		}
		switch tt {
		case tdcss.WhitespaceToken, tdcss.CommentToken, tdcss.CDOToken, tdcss.CDCToken:
		case tdcss.SemicolonToken:
			pending, atRule, started, bracket = nil, "", false, 0
		case tdcss.AtKeywordToken:
			if !started {
				atRule = string(data)
			}
			started = true
		case tdcss.LeftBracketToken:
			bracket++
			started = true
		case tdcss.RightBracketToken:
			if bracket > 0 {
				bracket--
			}
		case tdcss.IdentToken:
			started = true
			if atRule == "" && bracket == 0 {
				pending = append(pending, selectorIdent{offset: start, data: data})
			}
		default:
			started = true
		}
	}
}
