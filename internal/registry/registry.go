// Package registry resolves logical asset references to hashed filesystem
// paths, URL paths, absolute URLs and HTML fragments.
//
// A Registry is configured with a site-wide URL prefix, a filesystem root and
// a set of named resource types. Hashed names come from the manifest stored
// at <fs root>/manifest; names missing from the manifest resolve unhashed.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"webstatic/internal/digest"
	"webstatic/internal/manifest"
)

// DefaultHashLength is the hash prefix length used when Options leaves it
// unset.
const DefaultHashLength = 6

// ManifestName is the manifest file name inside the registry filesystem root.
const ManifestName = "manifest"

var (
	// ErrNotImplemented reports an operation the resource kind does not
	// support, such as HTML for plain files or URL without a domain.
	ErrNotImplemented = errors.New("not implemented")
	// ErrUnknownType reports a resource type name absent from the registry.
	ErrUnknownType = errors.New("unknown resource type")
)

// Options configures a Registry.
type Options struct {
	// URLPath is the site-wide URL prefix, e.g. "/static/".
	URLPath string
	// FSPath is the filesystem root holding assets and the manifest.
	FSPath string
	// Domain enables absolute URLs (//domain/path) when set.
	Domain     string
	HashLength int
	Types      map[string]ResourceType
}

// Registry resolves resources of its configured types.
type Registry struct {
	urlPath    string
	fsPath     string
	domain     string
	hashLength int
	types      map[string]ResourceType
	manifest   *manifest.Manifest
}

// New builds a registry. No manifest is loaded until LoadManifest or
// LoadManifestData is called.
func New(opts Options) *Registry {
	hashLength := opts.HashLength
	if hashLength <= 0 {
		hashLength = DefaultHashLength
	}
	types := make(map[string]ResourceType, len(opts.Types))
	for name, rt := range opts.Types {
		types[name] = rt
	}
	return &Registry{
		urlPath:    opts.URLPath,
		fsPath:     opts.FSPath,
		domain:     opts.Domain,
		hashLength: hashLength,
		types:      types,
	}
}

// ManifestPath returns the absolute path of the registry manifest file.
func (r *Registry) ManifestPath() string {
	path := filepath.Join(r.fsPath, ManifestName)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// LoadManifest reads the manifest stored at <fs root>/manifest, replacing any
// previously loaded one. A missing file is an error.
func (r *Registry) LoadManifest() error {
	path := r.ManifestPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("registry manifest: %w", err)
	}
	m, err := manifest.Open(path, r.hashLength)
	if err != nil {
		return err
	}
	r.manifest = m
	return nil
}

// LoadManifestData seeds a fresh manifest from key to full hash pairs instead
// of reading the file. Keys follow manifest addressing rules.
func (r *Registry) LoadManifestData(data map[string]string) {
	m := manifest.NewFile(r.ManifestPath(), r.hashLength)
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		m.Set(key, data[key])
	}
	r.manifest = m
}

// Manifest returns the loaded manifest, or nil before loading.
func (r *Registry) Manifest() *manifest.Manifest { return r.manifest }

// Domain returns the configured domain.
func (r *Registry) Domain() string { return r.domain }

// TypeNames returns the configured type names in sorted order.
func (r *Registry) TypeNames() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Type returns the resource type registered under name.
func (r *Registry) Type(name string) (ResourceType, bool) {
	rt, ok := r.types[name]
	return rt, ok
}

// Resolve resolves every name as a resource of the named type. Favicon types
// accept an empty name list and resolve the default favicon.
func (r *Registry) Resolve(typeName string, names []string, opts ...Option) (Resources, error) {
	rt, ok := r.types[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	if len(names) == 0 && rt.Kind == KindFavicon {
		names = []string{""}
	}
	out := make(Resources, 0, len(names))
	for _, name := range names {
		out = append(out, r.resolve(rt, name, opts))
	}
	return out, nil
}

// Resource resolves a single name.
func (r *Registry) Resource(typeName, name string, opts ...Option) (Resource, error) {
	rt, ok := r.types[typeName]
	if !ok {
		return Resource{}, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	return r.resolve(rt, name, opts), nil
}

func (r *Registry) resolve(rt ResourceType, name string, opts []Option) Resource {
	cfg := resolveOptions{addHash: rt.AddHash, ext: rt.Ext}
	for _, opt := range opts {
		opt(&cfg)
	}

	res := Resource{
		Kind:        rt.Kind,
		Name:        name,
		domain:      r.domain,
		absoluteURL: cfg.absoluteURL,
		media:       cfg.media,
		deferLoad:   cfg.deferLoad,
		async:       cfg.async,
	}

	if rt.Kind == KindFavicon {
		if name == "" {
			ext := cfg.ext
			if ext == "" {
				ext = DefaultFaviconExt
			}
			name = "favicon." + strings.TrimPrefix(ext, ".")
			res.Name = name
		}
		res.FSPath = filepath.Join(r.fsPath, rt.FSPath, name)
		res.URLPath = "/" + name
	} else {
		res.FSPath = filepath.Join(r.fsPath, rt.FSPath, name)
		res.URLPath = joinURL(r.urlPath, rt.URLPath, name)
	}

	if cfg.addHash && r.manifest != nil && name != "" {
		if hash, err := r.manifest.Get(res.FSPath); err == nil {
			res.FSPath = digest.InsertFragment(res.FSPath, hash)
			res.URLPath = digest.InsertFragment(res.URLPath, hash)
		}
	}
	return res
}

// joinURL joins URL path segments the way POSIX path joining does: a segment
// starting with "/" restarts the path, and a trailing empty segment leaves a
// trailing slash.
func joinURL(parts ...string) string {
	var b strings.Builder
	for i, part := range parts {
		if strings.HasPrefix(part, "/") {
			b.Reset()
			b.WriteString(part)
			continue
		}
		cur := b.String()
		if i > 0 && cur != "" && !strings.HasSuffix(cur, "/") {
			b.WriteByte('/')
		}
		b.WriteString(part)
	}
	return b.String()
}
