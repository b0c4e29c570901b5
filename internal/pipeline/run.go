package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"webstatic/internal/logging"
)

// RunOption customizes a pipeline run.
type RunOption func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes per-stage log records to logger.
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Run folds an empty Item through stages in order and returns the final Item.
// The first stage error aborts the run; it is returned wrapped with the stage
// position and name and still matches the original error under errors.Is.
func Run(ctx context.Context, stages []Stage, opts ...RunOption) (Item, error) {
	cfg := runConfig{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var item Item
	for i, stage := range stages {
		if stage == nil {
			return Item{}, fmt.Errorf("stage %d: nil stage", i)
		}
		name := stage.Name()
		stageCtx := logging.WithStage(ctx, name)
		stageLogger := logging.WithContext(stageCtx, cfg.logger)
		stageCtx = logging.IntoContext(stageCtx, stageLogger)

		started := time.Now()
		next, err := stage.Process(stageCtx, item)
		if err != nil {
			stageLogger.Debug("stage failed",
				logging.String(logging.FieldEventType, "stage_failure"),
				logging.Int("position", i),
				logging.Error(err),
			)
			return Item{}, fmt.Errorf("stage %d (%s): %w", i, name, err)
		}
		item = next

		stageLogger.Debug("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Int("position", i),
			logging.Duration("elapsed", time.Since(started)),
			logging.String("item_path", item.Path),
			logging.Int("item_bytes", len(item.Data)),
		)
	}
	return item, nil
}
