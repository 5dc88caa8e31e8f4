package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export every item as JSON Lines for other tools",
		Long:  "Write one JSON object per item. Defaults to <data-dir>/exports/memory_universal.jsonl.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runExport,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Append session and long-term items to today's memory file",
		Run:   runSnapshot,
	}

	RootCmd.AddCommand(exportCmd, snapshotCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	var path string
	if len(args) > 0 {
		path = args[0]
	}

	withSession(cmd, "export", func(ctx context.Context, s *session) error {
		out, err := s.gateway.ExportUniversal(ctx, s.store, path)
		if err != nil {
			return err
		}
		printOut(map[string]any{"path": out, "items": s.store.Len()}, func() string { return out })
		return nil
	})
}

func runSnapshot(cmd *cobra.Command, args []string) {
	withSession(cmd, "snapshot", func(ctx context.Context, s *session) error {
		out, err := s.gateway.SnapshotDaily(ctx, s.store)
		if err != nil {
			return err
		}
		printOut(map[string]string{"path": out}, func() string { return out })
		return nil
	})
}
