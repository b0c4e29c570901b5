package registry

import (
	"fmt"
	"html"
	"strings"
)

// Kind identifies how a resource renders.
type Kind int

const (
	KindFile Kind = iota
	KindCSS
	KindJS
	KindFavicon
)

// DefaultFaviconExt is the favicon extension used when none is configured.
const DefaultFaviconExt = "ico"

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindCSS:
		return "css"
	case KindJS:
		return "js"
	case KindFavicon:
		return "favicon"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "file", "":
		return KindFile, nil
	case "css":
		return KindCSS, nil
	case "js":
		return KindJS, nil
	case "favicon":
		return KindFavicon, nil
	default:
		return 0, fmt.Errorf("unknown resource kind %q", name)
	}
}

// ResourceType describes one family of resources. URLPath and FSPath are
// relative to the registry URL prefix and filesystem root.
type ResourceType struct {
	Kind    Kind
	URLPath string
	FSPath  string
	AddHash bool
	// Ext is used by favicons only.
	Ext string
}

// File describes plain files.
func File(urlPath, fsPath string, addHash bool) ResourceType {
	return ResourceType{Kind: KindFile, URLPath: urlPath, FSPath: fsPath, AddHash: addHash}
}

// CSS describes stylesheets rendered as <link> tags.
func CSS(urlPath, fsPath string, addHash bool) ResourceType {
	return ResourceType{Kind: KindCSS, URLPath: urlPath, FSPath: fsPath, AddHash: addHash}
}

// JS describes scripts rendered as <script> tags.
func JS(urlPath, fsPath string, addHash bool) ResourceType {
	return ResourceType{Kind: KindJS, URLPath: urlPath, FSPath: fsPath, AddHash: addHash}
}

// Favicon describes the site favicon. It is served from the site root and
// never hashed. An empty ext means "ico".
func Favicon(fsPath, ext string) ResourceType {
	if ext == "" {
		ext = DefaultFaviconExt
	}
	return ResourceType{Kind: KindFavicon, FSPath: fsPath, Ext: ext}
}

// Option adjusts a single resolution.
type Option func(*resolveOptions)

type resolveOptions struct {
	addHash     bool
	absoluteURL bool
	media       string
	deferLoad   bool
	async       bool
	ext         string
}

// WithAddHash overrides the type's hashing default.
func WithAddHash(enabled bool) Option {
	return func(o *resolveOptions) { o.addHash = enabled }
}

// WithAbsoluteURL makes HTML reference the //domain form of the URL.
func WithAbsoluteURL() Option {
	return func(o *resolveOptions) { o.absoluteURL = true }
}

// WithMedia sets the media attribute of stylesheet links.
func WithMedia(media string) Option {
	return func(o *resolveOptions) { o.media = media }
}

// WithDefer adds the defer attribute to script tags.
func WithDefer() Option {
	return func(o *resolveOptions) { o.deferLoad = true }
}

// WithAsync adds the async attribute to script tags.
func WithAsync() Option {
	return func(o *resolveOptions) { o.async = true }
}

// WithExt overrides the favicon extension.
func WithExt(ext string) Option {
	return func(o *resolveOptions) {
		if ext != "" {
			o.ext = ext
		}
	}
}

// Resource is one resolved asset reference.
type Resource struct {
	Kind    Kind
	Name    string
	FSPath  string
	URLPath string

	domain      string
	absoluteURL bool
	media       string
	deferLoad   bool
	async       bool
}

// URL returns the protocol-relative absolute URL //domain/path. It fails with
// ErrNotImplemented when the registry has no domain.
func (r Resource) URL() (string, error) {
	if r.domain == "" {
		return "", fmt.Errorf("absolute url for %q: %w: no domain configured", r.URLPath, ErrNotImplemented)
	}
	return "//" + r.domain + r.URLPath, nil
}

func (r Resource) href() (string, error) {
	if r.absoluteURL {
		return r.URL()
	}
	return r.URLPath, nil
}

// HTML renders the tag that references the resource. Attribute values are
// escaped. Only stylesheets and scripts render.
func (r Resource) HTML() (string, error) {
	switch r.Kind {
	case KindCSS:
		href, err := r.href()
		if err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString(`<link rel="stylesheet" href="`)
		b.WriteString(html.EscapeString(href))
		b.WriteByte('"')
		if r.media != "" {
			b.WriteString(` media="`)
			b.WriteString(html.EscapeString(r.media))
			b.WriteByte('"')
		}
		b.WriteByte('>')
		return b.String(), nil
	case KindJS:
		src, err := r.href()
		if err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString(`<script src="`)
		b.WriteString(html.EscapeString(src))
		b.WriteByte('"')
		if r.deferLoad {
			b.WriteString(" defer")
		}
		if r.async {
			b.WriteString(" async")
		}
		b.WriteString("></script>")
		return b.String(), nil
	default:
		return "", fmt.Errorf("html for %s resource: %w", r.Kind, ErrNotImplemented)
	}
}

// Resources is an ordered resolution result.
type Resources []Resource

// FSPaths returns the filesystem path of every resource.
func (rs Resources) FSPaths() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.FSPath
	}
	return out
}

// URLPaths returns the URL path of every resource.
func (rs Resources) URLPaths() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.URLPath
	}
	return out
}

// URLs returns the absolute URL of every resource.
func (rs Resources) URLs() ([]string, error) {
	out := make([]string, len(rs))
	for i, r := range rs {
		u, err := r.URL()
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

// HTML renders every resource, one fragment per line.
func (rs Resources) HTML() (string, error) {
	parts := make([]string, len(rs))
	for i, r := range rs {
		fragment, err := r.HTML()
		if err != nil {
			return "", err
		}
		parts[i] = fragment
	}
	return strings.Join(parts, "\n"), nil
}
