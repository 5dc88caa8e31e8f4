package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/model"
	"github.com/rcliao/ctxmem/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-layer statistics, pattern insights and suggestions",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	withSession(cmd, "stats", func(_ context.Context, s *session) error {
		sum := s.store.Summary()
		printOut(sum, func() string { return formatSummary(sum, s.cfg.StoragePath()) })
		return nil
	})
}

func formatSummary(sum store.Summary, path string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "store:  %s\n", path)
	fmt.Fprintf(&b, "items:  %s (%s)\n", humanize.Comma(int64(sum.TotalItems)), humanize.IBytes(uint64(sum.TotalSizeBytes)))
	for _, layer := range model.Layers {
		ls := sum.Layers[layer]
		fmt.Fprintf(&b, "  %-11s %6s items  %9s  avg %s\n", layer, humanize.Comma(int64(ls.ItemCount)),
			humanize.IBytes(uint64(ls.SizeBytes)), humanize.IBytes(uint64(ls.AvgItemSize)))
	}
	fmt.Fprintf(&b, "linked: %d items\n", sum.Relationships)

	if ops := sum.PatternInsights.MostCommonOperations; len(ops) > 0 {
		b.WriteString("common operations:")
		for _, c := range ops {
			fmt.Fprintf(&b, " %s(%d)", c.Name, c.Count)
		}
		b.WriteString("\n")
	}
	if errs := sum.PatternInsights.CommonErrorTypes; len(errs) > 0 {
		b.WriteString("frequent errors:")
		for _, c := range errs {
			fmt.Fprintf(&b, " %s(%d)", c.Name, c.Count)
		}
		b.WriteString("\n")
	}
	for _, sug := range sum.OptimizationSuggestions {
		fmt.Fprintf(&b, "suggestion: %s\n", sug)
	}
	return strings.TrimRight(b.String(), "\n")
}
