// Package watch rebuilds assets when their sources change.
//
// A Watcher subscribes to a set of directories (recursively) with fsnotify,
// collects change events over a quiet period and hands the changed paths to a
// rebuild callback. Rebuild failures are logged and watching continues.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"webstatic/internal/logging"
)

// DefaultDebounce is the quiet period used when Options leaves it unset.
const DefaultDebounce = 200 * time.Millisecond

// RebuildFunc receives the sorted set of paths changed since the last call.
type RebuildFunc func(ctx context.Context, changed []string) error

// Options configures a Watcher.
type Options struct {
	Dirs     []string
	Debounce time.Duration
	// Ignore reports paths whose events never trigger a rebuild, typically
	// the files the rebuild itself writes.
	Ignore func(path string) bool
	Logger *slog.Logger
}

// Watcher watches source directories and triggers debounced rebuilds.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	dirs     []string
	ignore   func(string) bool
	debounce *Debouncer

	mu      sync.Mutex
	pending map[string]struct{}
	running bool
}

// New creates a watcher. Directories are subscribed when Run starts.
func New(opts Options) (*Watcher, error) {
	if len(opts.Dirs) == 0 {
		return nil, errors.New("watch: no directories to watch")
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	ignore := opts.Ignore
	if ignore == nil {
		ignore = func(string) bool { return false }
	}
	return &Watcher{
		fs:       fsw,
		logger:   logging.NewComponentLogger(opts.Logger, "watch"),
		dirs:     append([]string(nil), opts.Dirs...),
		ignore:   ignore,
		debounce: NewDebouncer(debounce),
		pending:  make(map[string]struct{}),
	}, nil
}

// Run blocks until ctx is cancelled, invoking rebuild after each burst of
// relevant changes. Rebuilds never overlap.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.debounce.Stop()
		if err := w.fs.Close(); err != nil {
			w.logger.Debug("close fsnotify watcher", logging.Error(err))
		}
	}()

	for _, dir := range w.dirs {
		if err := w.addTree(dir); err != nil {
			return err
		}
	}
	w.logger.Info("watching for changes",
		logging.String(logging.FieldEventType, "watch_start"),
		logging.Strings("dirs", w.dirs),
	)

	var rebuildMu sync.Mutex
	fire := func() {
		changed := w.drain()
		if len(changed) == 0 || ctx.Err() != nil {
			return
		}
		rebuildMu.Lock()
		defer rebuildMu.Unlock()
		w.logger.Info("change detected",
			logging.String(logging.FieldEventType, "rebuild_triggered"),
			logging.Strings("paths", changed),
		)
		if err := rebuild(ctx, changed); err != nil {
			logging.WarnWithContext(w.logger, "rebuild failed", "rebuild_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the reported source and save again"),
				logging.String(logging.FieldImpact, "previous build output stays in place"),
			)
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped", logging.String(logging.FieldEventType, "watch_stop"))
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Debug("watch new directory", logging.String("path", event.Name), logging.Error(err))
					}
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("file event",
				logging.String("path", event.Name),
				logging.String("op", event.Op.String()),
			)
			w.mark(event.Name)
			w.debounce.Trigger(fire)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", logging.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return !w.ignore(event.Name)
}

func (w *Watcher) mark(path string) {
	w.mu.Lock()
	w.pending[path] = struct{}{}
	w.mu.Unlock()
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	clear(w.pending)
	slices.Sort(changed)
	return changed
}

// addTree subscribes dir and its non-hidden subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch directory %q: %w", path, err)
		}
		return nil
	})
}

// OutputFilter returns an Ignore function matching the given files exactly
// and every file a hashed output can produce: for output dir/name.ext that is
// dir/name.ext itself, dir/name.<hash>.ext and their .gz siblings.
func OutputFilter(outputs []string, exact ...string) func(string) bool {
	type stem struct{ dir, prefix string }
	stems := make([]stem, 0, len(outputs))
	for _, out := range outputs {
		base := filepath.Base(out)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if name == "" {
			name = base
		}
		stems = append(stems, stem{dir: filepath.Dir(out), prefix: name})
	}
	exactSet := make(map[string]struct{}, len(exact))
	for _, p := range exact {
		exactSet[filepath.Clean(p)] = struct{}{}
	}
	return func(path string) bool {
		path = filepath.Clean(path)
		if _, ok := exactSet[path]; ok {
			return true
		}
		dir, base := filepath.Dir(path), filepath.Base(path)
		for _, s := range stems {
			if dir != s.dir {
				continue
			}
			if base == s.prefix || strings.HasPrefix(base, s.prefix+".") {
				return true
			}
		}
		return false
	}
}
