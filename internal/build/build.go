package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"webstatic/internal/config"
	"webstatic/internal/digest"
	"webstatic/internal/logging"
	"webstatic/internal/manifest"
	"webstatic/internal/pipeline"
)

var (
	// ErrUnknownBundle reports a requested bundle name absent from the config.
	ErrUnknownBundle = errors.New("unknown bundle")
	// ErrLocked reports that another build holds the manifest lock.
	ErrLocked = errors.New("manifest is locked by another build")
)

const lockRetryDelay = 50 * time.Millisecond

// Result describes one built bundle.
type Result struct {
	Bundle   string
	Output   string
	Written  string
	Hash     string
	Bytes    int
	Gzipped  bool
	Duration time.Duration
}

// Summary describes a build run.
type Summary struct {
	RunID    string
	Manifest string
	Started  time.Time
	Elapsed  time.Duration
	Results  []Result
}

// Option customizes a Builder.
type Option func(*Builder)

// WithLockWait makes Run wait up to d for a concurrent build to release the
// manifest lock instead of failing immediately.
func WithLockWait(d time.Duration) Option {
	return func(b *Builder) { b.lockWait = d }
}

// Builder executes configured bundles against the project manifest.
type Builder struct {
	cfg      *config.Config
	logger   *slog.Logger
	alg      digest.Algorithm
	lockWait time.Duration
}

// New validates the hashing settings and returns a Builder.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Builder, error) {
	if cfg == nil {
		return nil, errors.New("build requires a config")
	}
	alg, err := digest.Parse(cfg.Manifest.Algorithm)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "build"),
		alg:    alg,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Select returns the named bundles in the order given, or every bundle in
// configuration order when names is empty.
func (b *Builder) Select(names ...string) ([]config.Bundle, error) {
	if len(names) == 0 {
		return append([]config.Bundle(nil), b.cfg.Bundles...), nil
	}
	out := make([]config.Bundle, 0, len(names))
	for _, name := range names {
		bundle, ok := b.cfg.Bundle(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBundle, name)
		}
		out = append(out, bundle)
	}
	return out, nil
}

// Run builds the selected bundles in order under an exclusive lock on the
// manifest. The first failing bundle aborts the run; results of bundles
// built before it are still returned.
func (b *Builder) Run(ctx context.Context, names ...string) (*Summary, error) {
	bundles, err := b.Select(names...)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:    uuid.NewString(),
		Manifest: b.cfg.Paths.Manifest,
		Started:  time.Now(),
	}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, b.logger)

	if err := b.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	unlock, err := b.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			logging.WarnWithContext(logger, "failed to release manifest lock", "lock_release_failed",
				logging.String("lock", b.cfg.LockPath()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file if no build is running"),
			)
		}
	}()

	m, err := manifest.Open(b.cfg.Paths.Manifest, b.cfg.Manifest.HashLength)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	logger.Info("build started",
		logging.String(logging.FieldEventType, "build_start"),
		logging.Int("bundles", len(bundles)),
		logging.String("manifest", b.cfg.Paths.Manifest),
	)

	for _, bundle := range bundles {
		result, err := b.runBundle(ctx, bundle, m)
		if err != nil {
			summary.Elapsed = time.Since(summary.Started)
			logger.Error("build failed",
				logging.String(logging.FieldEventType, "build_failure"),
				logging.String(logging.FieldBundle, bundle.Name),
				logging.Error(err),
			)
			return summary, fmt.Errorf("bundle %q: %w", bundle.Name, err)
		}
		summary.Results = append(summary.Results, result)
	}

	summary.Elapsed = time.Since(summary.Started)
	logger.Info("build completed",
		logging.String(logging.FieldEventType, "build_complete"),
		logging.Int("bundles", len(summary.Results)),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (b *Builder) runBundle(ctx context.Context, bundle config.Bundle, m *manifest.Manifest) (Result, error) {
	ctx = logging.WithBundle(ctx, bundle.Name)
	started := time.Now()

	stages, err := Stages(bundle, m, b.alg)
	if err != nil {
		return Result{}, err
	}
	item, err := pipeline.Run(ctx, stages, pipeline.WithLogger(logging.WithContext(ctx, b.logger)))
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Bundle:   bundle.Name,
		Output:   bundle.Output,
		Written:  item.Path,
		Bytes:    len(item.Data),
		Gzipped:  bundle.Gzip,
		Duration: time.Since(started),
	}
	logger := logging.WithContext(ctx, b.logger)
	if bundle.Hashed() {
		hash, err := m.Get(bundle.Output)
		if err != nil {
			logging.WarnWithContext(logger, "bundle output missing from manifest", "manifest_miss",
				logging.String("output", bundle.Output),
				logging.Error(err),
				logging.String(logging.FieldImpact, "build summary omits the hash"),
			)
		}
		result.Hash = hash
	}
	logger.Debug("bundle built",
		logging.String(logging.FieldEventType, "bundle_complete"),
		logging.String("written", result.Written),
		logging.Bool("gzipped", result.Gzipped),
		logging.Duration("elapsed", result.Duration),
	)
	return result, nil
}

// lock acquires the manifest lock and returns its release function.
func (b *Builder) lock(ctx context.Context) (func() error, error) {
	lockPath := b.cfg.LockPath()
	lock := flock.New(lockPath)

	var (
		ok  bool
		err error
	)
	if b.lockWait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, b.lockWait)
		defer cancel()
		ok, err = lock.TryLockContext(waitCtx, lockRetryDelay)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
	} else {
		ok, err = lock.TryLock()
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	return lock.Unlock, nil
}

// Stages compiles a bundle into its stage sequence: input, concatenation for
// several inputs, Markdown rendering, literal replacements, minification,
// output and an optional gzip sibling. Hashed bundles record their output in
// m.
func Stages(bundle config.Bundle, m *manifest.Manifest, alg digest.Algorithm) ([]pipeline.Stage, error) {
	if len(bundle.Inputs) == 0 {
		return nil, fmt.Errorf("%w: bundle %q has no inputs", pipeline.ErrNoContent, bundle.Name)
	}

	stages := make([]pipeline.Stage, 0, 7)
	if len(bundle.Inputs) == 1 {
		stages = append(stages, pipeline.InputItem(bundle.Inputs[0], nil))
	} else {
		stages = append(stages, pipeline.Input(bundle.Inputs...), pipeline.Concat())
	}
	if bundle.Markdown {
		stages = append(stages, pipeline.Markdown())
	}
	if len(bundle.Replace) > 0 {
		pairs := make([]pipeline.Replacement, 0, len(bundle.Replace))
		for _, r := range bundle.Replace {
			pairs = append(pairs, pipeline.Replacement{Old: r.From, New: r.To})
		}
		stages = append(stages, pipeline.Replace(pairs...))
	}
	switch bundle.Minify {
	case "":
	case "css":
		stages = append(stages, pipeline.CSSMin())
	case "js":
		stages = append(stages, pipeline.JSMin())
	case "html":
		stages = append(stages, pipeline.HTMLMin())
	default:
		return nil, fmt.Errorf("bundle %q: unsupported minifier %q", bundle.Name, bundle.Minify)
	}

	opts := []pipeline.OutputOption{pipeline.WithDigest(alg)}
	if bundle.Makedirs {
		opts = append(opts, pipeline.WithMakedirs())
	}
	if bundle.Hashed() && m != nil {
		opts = append(opts, pipeline.WithManifest(m))
	}
	stages = append(stages, pipeline.Output(bundle.Output, opts...))
	if bundle.Gzip {
		stages = append(stages, pipeline.Gzip())
	}
	return stages, nil
}
