// Package scheduler re-runs the update pass on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/kkandukuri/pricetracker/internal/tracker"
)

// Updater triggers a full product refresh on every tick.
type Updater struct {
	tracker  *tracker.Tracker
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
}

// NewUpdater builds a periodic updater; a non-positive interval disables it.
func NewUpdater(t *tracker.Tracker, interval time.Duration, logger *slog.Logger) *Updater {
	return &Updater{tracker: t, interval: interval, logger: logger}
}

// Start launches the ticker goroutine. The first pass runs after one full
// interval, not immediately.
func (u *Updater) Start(ctx context.Context) {
	if u.interval <= 0 || u.stop != nil {
		return
	}

	u.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(u.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				u.runOnce(ctx)
			case <-ctx.Done():
				return
			case <-u.stop:
				return
			}
		}
	}()
}

// Stop halts the ticker goroutine.
func (u *Updater) Stop() {
	if u.stop == nil {
		return
	}
	close(u.stop)
	u.stop = nil
}

func (u *Updater) runOnce(ctx context.Context) {
	result, err := u.tracker.UpdateAll(ctx)
	if err != nil {
		u.logger.Error("scheduled update aborted", "error", err)
		return
	}
	u.logger.Info("scheduled update finished",
		"total", result.Total, "updated", result.Updated, "failed", result.Failed)
}
