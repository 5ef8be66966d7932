// Package worker hosts the background pieces of the service: the draft
// expiry loop and the post-commit side effect handlers.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/service"
)

// SweeperWorker runs the draft expiry sweep on an interval.
type SweeperWorker struct {
	sweeper  *service.SweeperService
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeperWorker constructs the worker.
func NewSweeperWorker(sweeper *service.SweeperService, interval time.Duration, logger *zap.Logger) *SweeperWorker {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &SweeperWorker{sweeper: sweeper, interval: interval, logger: logger}
}

// Run blocks until the context is cancelled, sweeping once per interval. A
// failed pass is logged and the loop keeps going.
func (w *SweeperWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("draft sweeper started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("draft sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.sweeper.Sweep(ctx); err != nil {
				w.logger.Error("draft sweep pass failed", zap.Error(err))
			}
		}
	}
}
