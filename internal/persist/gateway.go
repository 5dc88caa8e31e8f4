package persist

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rcliao/ctxmem/internal/model"
)

const (
	exportDirName   = "exports"
	exportFileName  = "memory_universal.jsonl"
	memoryDirName   = "memory"
	dailyDateLayout = "2006-01-02"
	dailyFileSuffix = ".jsonl"
)

// Options configures a Gateway.
type Options struct {
	// DataDir holds the exports/ and memory/ directories.
	DataDir string
	// ExportOnSave writes the universal export after every successful save.
	ExportOnSave bool
	// Now overrides the clock used for daily file names.
	Now func() time.Time
}

// Gateway moves store state to and from a Backend and writes the JSONL views.
type Gateway struct {
	backend      Backend
	dataDir      string
	exportOnSave bool
	now          func() time.Time
	logger       *slog.Logger
}

// NewGateway creates a gateway over backend.
func NewGateway(backend Backend, opts Options, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gateway{
		backend:      backend,
		dataDir:      opts.DataDir,
		exportOnSave: opts.ExportOnSave,
		now:          opts.Now,
		logger:       logger.With("component", "persist"),
	}
}

// Save writes a snapshot of src. Failures are logged and reported as false so
// interactive use is never interrupted.
func (g *Gateway) Save(ctx context.Context, src Source) bool {
	snap := src.Snapshot()
	if err := g.backend.Save(ctx, snap); err != nil {
		g.logger.Error("failed to save context", "error", err)
		return false
	}
	g.logger.Debug("context saved", "items", snap.Len())

	if g.exportOnSave {
		if _, err := g.ExportUniversal(ctx, src, ""); err != nil {
			g.logger.Warn("export after save failed", "error", err)
		}
	}
	return true
}

// Load returns the saved snapshot. A missing or unreadable snapshot yields an
// empty one.
func (g *Gateway) Load(ctx context.Context) model.Snapshot {
	snap, err := g.backend.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		g.logger.Debug("no saved context, starting empty")
		return model.NewSnapshot(g.now())
	case err != nil:
		g.logger.Warn("saved context unreadable, starting empty", "error", err)
		return model.NewSnapshot(g.now())
	}
	g.logger.Debug("context loaded", "items", snap.Len())
	return snap
}

// Close releases the backend.
func (g *Gateway) Close() error {
	return g.backend.Close()
}

// ExportPath is the default universal export location.
func (g *Gateway) ExportPath() string {
	return filepath.Join(g.dataDir, exportDirName, exportFileName)
}

// DailyPath is the daily snapshot file for day.
func (g *Gateway) DailyPath(day time.Time) string {
	return filepath.Join(g.dataDir, memoryDirName, day.Format(dailyDateLayout)+dailyFileSuffix)
}
