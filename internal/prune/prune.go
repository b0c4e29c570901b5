// Package prune removes hashed asset files superseded by newer builds.
//
// For every manifest entry dir/name.ext it looks in dir for files named
// name.<hex>.ext (plus .gz siblings) whose hex fragment has the manifest's
// prefix length but differs from the entry's current prefix. Files are
// matched strictly by that shape, so unrelated files are never touched.
package prune

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"webstatic/internal/logging"
	"webstatic/internal/manifest"
)

// Options controls a prune pass.
type Options struct {
	// DryRun reports candidates without removing them.
	DryRun bool
	// MinAge keeps candidates modified more recently than this.
	MinAge time.Duration
	Logger *slog.Logger
}

// Result contains the outcome of a prune pass.
type Result struct {
	Removed []string
	Bytes   int64
	Errors  []CleanupError
}

// CleanupError pairs a file path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Run scans the directories of every manifest entry and removes superseded
// hashed files.
func Run(ctx context.Context, m *manifest.Manifest, opts Options) Result {
	result := Result{}
	if m == nil {
		return result
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	cutoff := time.Now().Add(-opts.MinAge)

	for _, entry := range m.Entries() {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entry.Key, Error: ctx.Err()})
			return result
		}
		current := m.Truncate(entry.Hash)
		pattern, err := superseded(entry.Key, len(current))
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entry.Key, Error: err})
			continue
		}

		dir := filepath.Dir(entry.Key)
		files, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
			}
			continue
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			match := pattern.FindStringSubmatch(file.Name())
			if match == nil || strings.EqualFold(match[1], current) {
				continue
			}
			path := filepath.Join(dir, file.Name())
			info, err := file.Info()
			if err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if opts.DryRun {
				result.Removed = append(result.Removed, path)
				result.Bytes += info.Size()
				continue
			}
			if err := os.Remove(path); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				logger.Warn("failed to remove superseded asset",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "prune_failed"),
					logging.String(logging.FieldErrorHint, "check output directory permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
				continue
			}
			result.Removed = append(result.Removed, path)
			result.Bytes += info.Size()
			logger.Info("removed superseded asset",
				logging.String("path", path),
				logging.Int64("bytes", info.Size()),
				logging.String(logging.FieldEventType, "prune"),
			)
		}
	}
	return result
}

// superseded builds the file name pattern of hashed variants of key with a
// fragment of n hex digits. The fragment is capture group 1.
func superseded(key string, n int) (*regexp.Regexp, error) {
	if n <= 0 {
		return nil, fmt.Errorf("empty hash for %s", key)
	}
	base := filepath.Base(key)
	stem, ext := base, ""
	rest := strings.TrimLeft(base, ".")
	if i := strings.LastIndex(rest, "."); i >= 0 {
		cut := len(base) - len(rest) + i
		stem, ext = base[:cut], base[cut:]
	}
	expr := fmt.Sprintf(`^%s\.([0-9a-fA-F]{%d})%s(\.gz)?$`, regexp.QuoteMeta(stem), n, regexp.QuoteMeta(ext))
	return regexp.Compile(expr)
}
