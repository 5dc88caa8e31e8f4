package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/compress"
	"github.com/rcliao/ctxmem/internal/model"
)

func init() {
	compressCmd := &cobra.Command{
		Use:   "compress <layer>",
		Short: "Compress every item in a layer",
		Args:  cobra.ExactArgs(1),
		Run:   runCompress,
	}
	compressCmd.Flags().Float64("target", compress.DefaultRatio, "Target ratio of compressed to original size")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Evict over-budget items and compress large, rarely used ones",
		Run:   runOptimize,
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Drop stale, low-relevance items",
		Run:   runCleanup,
	}
	cleanupCmd.Flags().Duration("max-age", 0, "Idle time before an item is stale (default from config)")
	cleanupCmd.Flags().Float64("floor", -1, "Relevance floor (default from config)")

	RootCmd.AddCommand(compressCmd, optimizeCmd, cleanupCmd)
}

func runCompress(cmd *cobra.Command, args []string) {
	target, _ := cmd.Flags().GetFloat64("target")
	layer, err := model.ParseLayer(args[0])
	if err != nil {
		exitErr("compress", err)
	}
	if target <= 0 || target > 1 {
		exitErr("compress", fmt.Errorf("target %.2f must be within (0,1]", target))
	}

	withSession(cmd, "compress", func(_ context.Context, s *session) error {
		stats := s.store.CompressLayer(layer, target)
		printOut(stats, nil)
		return nil
	})
}

func runOptimize(cmd *cobra.Command, args []string) {
	withSession(cmd, "optimize", func(_ context.Context, s *session) error {
		printOut(s.store.OptimizeMemoryUsage(), nil)
		return nil
	})
}

func runCleanup(cmd *cobra.Command, args []string) {
	maxAge, _ := cmd.Flags().GetDuration("max-age")
	floor, _ := cmd.Flags().GetFloat64("floor")

	withSession(cmd, "cleanup", func(_ context.Context, s *session) error {
		if maxAge <= 0 {
			maxAge = s.cfg.CleanupMaxAge()
		}
		if floor < 0 {
			floor = s.cfg.Memory.CleanupRelevanceFloor
		}
		removed := s.store.Cleanup(maxAge, floor)
		printOut(map[string]int{"removed": removed}, nil)
		return nil
	})
}
