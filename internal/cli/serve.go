package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/maintenance"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run background maintenance until interrupted",
		Long: "Keep the store open, periodically dropping stale items and saving changes, " +
			"and append the daily snapshot on schedule. A final save runs on SIGINT or SIGTERM.",
		Run: runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	withSession(cmd, "serve", func(ctx context.Context, s *session) error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, s)
	})
}

// serve runs maintenance until ctx is done. The runner's final save covers
// the session's own save on close.
func serve(ctx context.Context, s *session) error {
	runner := maintenance.New(maintenance.Config{
		Interval:         s.cfg.MaintenanceInterval(),
		CleanupMaxAge:    s.cfg.CleanupMaxAge(),
		RelevanceFloor:   s.cfg.Memory.CleanupRelevanceFloor,
		SnapshotSchedule: s.cfg.Storage.SnapshotSchedule,
	}, s.store, s.gateway, s.logger)
	if err := runner.Start(ctx); err != nil {
		return err
	}
	s.logger.Info("serving", "data_dir", s.cfg.DataDir, "items", s.store.Len())

	<-ctx.Done()
	runner.Stop(context.Background())
	s.markSaved(runner.LastSaved())
	return nil
}
