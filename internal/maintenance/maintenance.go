// Package maintenance runs the periodic cleanup, debounced save and daily
// snapshot jobs for a long-running store.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rcliao/ctxmem/internal/persist"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultSchedule = "@daily"
)

// Store is the part of the context store maintenance touches.
type Store interface {
	persist.Source
	Cleanup(maxAge time.Duration, floor float64) int
	Version() uint64
}

// Gateway persists the store.
type Gateway interface {
	Save(ctx context.Context, src persist.Source) bool
	SnapshotDaily(ctx context.Context, src persist.Source) (string, error)
}

// Config tunes the runner.
type Config struct {
	Interval         time.Duration
	CleanupMaxAge    time.Duration
	RelevanceFloor   float64
	SnapshotSchedule string // cron spec or descriptor; empty disables
}

// Runner owns the maintenance goroutine and the snapshot cron entry.
type Runner struct {
	cfg     Config
	store   Store
	gateway Gateway
	logger  *slog.Logger

	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	lastSaved uint64
}

// New creates a runner. Changes already in the store when New is called are
// treated as saved.
func New(cfg Config, store Store, gateway Gateway, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Runner{
		cfg:       cfg,
		store:     store,
		gateway:   gateway,
		logger:    logger.With("component", "maintenance"),
		lastSaved: store.Version(),
	}
}

// Start launches the maintenance loop and schedules the daily snapshot.
func (r *Runner) Start(ctx context.Context) error {
	r.cron = cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	if r.cfg.SnapshotSchedule != "" {
		if _, err := r.cron.AddFunc(r.cfg.SnapshotSchedule, func() { r.snapshot(ctx) }); err != nil {
			return fmt.Errorf("schedule daily snapshot %q: %w", r.cfg.SnapshotSchedule, err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	go r.loop(loopCtx)
	r.cron.Start()

	r.logger.Info("maintenance started",
		"interval", r.cfg.Interval.String(),
		"snapshot_schedule", r.cfg.SnapshotSchedule,
	)
	return nil
}

// Stop ends the loop, waits for running jobs and flushes a final save.
func (r *Runner) Stop(ctx context.Context) {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	r.save(ctx, true)
	r.logger.Info("maintenance stopped")
}

// LastSaved returns the store version written by the last successful save.
func (r *Runner) LastSaved() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSaved
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// tick removes stale items and saves if anything changed since the last save.
func (r *Runner) tick(ctx context.Context) {
	if n := r.store.Cleanup(r.cfg.CleanupMaxAge, r.cfg.RelevanceFloor); n > 0 {
		r.logger.Debug("maintenance cleanup", "removed", n)
	}
	r.save(ctx, false)
}

func (r *Runner) save(ctx context.Context, force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.store.Version()
	if !force && v == r.lastSaved {
		return false
	}
	if !r.gateway.Save(ctx, r.store) {
		return false
	}
	r.lastSaved = v
	return true
}

func (r *Runner) snapshot(ctx context.Context) {
	path, err := r.gateway.SnapshotDaily(ctx, r.store)
	if err != nil {
		r.logger.Warn("daily snapshot failed", "error", err)
		return
	}
	r.logger.Debug("daily snapshot written", "path", path)
}
