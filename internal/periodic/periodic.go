// Package periodic runs a function repeatedly on one goroutine, sleeping a
// fixed interval after each run completes. Runs never overlap and a slow run
// never causes catch-up runs.
package periodic

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Options configures Run.
type Options struct {
	Name     string
	Interval time.Duration
	Logger   *slog.Logger
}

// Run calls fn until ctx is cancelled. Errors and panics from fn are logged
// and the loop continues. Run returns ctx.Err().
func Run(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("loop started", "loop", opts.Name, "interval", interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("loop stopped", "loop", opts.Name)
			return ctx.Err()
		case <-timer.C:
		}

		if err := Once(ctx, fn); err != nil {
			logger.Error("loop iteration failed", "loop", opts.Name, "error", err)
		}

		timer.Reset(interval)
	}
}

// Once runs fn a single time, converting a panic into an error.
func Once(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	return fn(ctx)
}
