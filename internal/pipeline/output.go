package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"webstatic/internal/digest"
	"webstatic/internal/fileutil"
	"webstatic/internal/logging"
	"webstatic/internal/manifest"
)

const assetFileMode = 0o644

// OutputOption customizes the Output stage.
type OutputOption func(*outputStage)

// WithManifest makes Output write to a hashed filename and record the full
// hash under the unhashed path.
func WithManifest(m *manifest.Manifest) OutputOption {
	return func(s *outputStage) { s.manifest = m }
}

// WithMakedirs creates missing parent directories before writing.
func WithMakedirs() OutputOption {
	return func(s *outputStage) { s.makedirs = true }
}

// WithDigest selects the content hash algorithm. SHA-1 is the default.
func WithDigest(alg digest.Algorithm) OutputOption {
	return func(s *outputStage) {
		if alg != "" {
			s.alg = alg
		}
	}
}

type outputStage struct {
	path     string
	manifest *manifest.Manifest
	makedirs bool
	alg      digest.Algorithm
}

// Output persists the item's bytes to path and returns an Item naming the
// file actually written.
//
// With a manifest, the file name gains a hash-prefix segment
// (name.<prefix>.ext), the manifest records the full hash under path (a
// relative path is keyed under the manifest root) and is saved when file
// backed, and the file written for the previous hash of the same path is
// removed. Stale names are rebuilt from every prefix of the previous full
// hash, so a changed hash length still finds the old file. They are never
// matched by pattern.
func Output(path string, opts ...OutputOption) Stage {
	s := &outputStage{path: path, alg: digest.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *outputStage) Name() string { return "output" }

func (s *outputStage) Process(ctx context.Context, in Item) (Item, error) {
	logger := logging.FromContext(ctx)
	if s.path == "" {
		return Item{}, fmt.Errorf("output: empty destination path")
	}

	data, err := in.Content()
	if err != nil {
		return Item{}, err
	}

	target := s.path
	var sum, prev string
	if s.manifest != nil {
		sum = s.alg.Sum(data)
		prev, _ = s.manifest.Lookup(s.path)
		target = digest.InsertFragment(s.path, s.manifest.Truncate(sum))
	}

	if s.makedirs {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return Item{}, fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := fileutil.WriteFileAtomic(target, data, assetFileMode); err != nil {
		return Item{}, fmt.Errorf("write %s: %w", target, err)
	}

	if s.manifest != nil {
		s.manifest.Set(s.path, sum)
		if s.manifest.Path() != "" {
			if err := s.manifest.Save(); err != nil {
				return Item{}, err
			}
		}
		for _, stale := range staleNames(s.path, prev, target) {
			removeStale(logger, stale)
		}
	}

	logger.Info("asset written",
		logging.String(logging.FieldEventType, "asset_written"),
		logging.String("path", target),
		logging.Int("bytes", len(data)),
	)
	return Item{Path: target, Data: data}, nil
}

// staleNames lists the hashed names path may have been written under for the
// full hash prev, skipping target.
func staleNames(path, prev, target string) []string {
	var names []string
	for n := len(prev); n > 0; n-- {
		name := digest.InsertFragment(path, prev[:n])
		if name != target {
			names = append(names, name)
		}
	}
	return names
}

func removeStale(logger *slog.Logger, stale string) {
	for _, path := range []string{stale, stale + gzipSuffix} {
		removed, err := fileutil.RemoveIfExists(path)
		if err != nil {
			logging.WarnWithContext(logger, "failed to remove superseded asset", "stale_removal_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check output directory permissions"),
				logging.String(logging.FieldImpact, "old hashed file remains on disk"),
			)
			continue
		}
		if removed {
			logger.Info("removed superseded asset",
				logging.String(logging.FieldEventType, "stale_removed"),
				logging.String("path", path),
			)
		}
	}
}

const gzipSuffix = ".gz"

type gzipStage struct{}

// Gzip writes a best-compression gzip copy of the item next to its path
// (<path>.gz) for servers that serve precompressed assets. The item passes
// through unchanged.
func Gzip() Stage { return gzipStage{} }

func (gzipStage) Name() string { return "gzip" }

func (gzipStage) Process(ctx context.Context, in Item) (Item, error) {
	if in.Path == "" {
		return Item{}, fmt.Errorf("gzip: %w: item has no path", ErrNoContent)
	}
	data, err := in.Content()
	if err != nil {
		return Item{}, err
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return Item{}, err
	}
	zw.Name = filepath.Base(in.Path)
	if _, err := zw.Write(data); err != nil {
		return Item{}, fmt.Errorf("gzip %s: %w", in.Path, err)
	}
	if err := zw.Close(); err != nil {
		return Item{}, fmt.Errorf("gzip %s: %w", in.Path, err)
	}

	target := in.Path + gzipSuffix
	if err := fileutil.WriteFileAtomic(target, buf.Bytes(), assetFileMode); err != nil {
		return Item{}, fmt.Errorf("write %s: %w", target, err)
	}
	logging.FromContext(ctx).Debug("precompressed asset written",
		logging.String(logging.FieldEventType, "gzip_written"),
		logging.String("path", target),
		logging.Int("bytes", buf.Len()),
	)
	return in, nil
}
