package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"webstatic/internal/build"
	"webstatic/internal/logging"
	"webstatic/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var skipInitial bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild bundles when their sources change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(cfg.Watch.Dirs) == 0 {
				return fmt.Errorf("nothing to watch: configure bundles or watch.dirs")
			}
			logger, closeLog, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			debounce := time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
			builder, err := build.New(cfg, logger, build.WithLockWait(debounce+5*time.Second))
			if err != nil {
				return err
			}

			if !skipInitial {
				if _, err := builder.Run(signalCtx); err != nil {
					logging.WarnWithContext(logger, "initial build failed", "initial_build_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "watching continues; the next change triggers a rebuild"),
					)
				}
			}

			outputs := make([]string, 0, len(cfg.Bundles))
			for _, b := range cfg.Bundles {
				outputs = append(outputs, b.Output)
			}
			w, err := watch.New(watch.Options{
				Dirs:     cfg.Watch.Dirs,
				Debounce: debounce,
				Ignore:   watch.OutputFilter(outputs, cfg.Paths.Manifest, cfg.LockPath()),
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			return w.Run(signalCtx, func(ctx context.Context, _ []string) error {
				_, err := builder.Run(ctx)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&skipInitial, "no-initial-build", false, "Skip the build that runs before watching starts")
	return cmd
}
