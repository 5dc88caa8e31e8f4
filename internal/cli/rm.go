package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove context items and their relationships",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	withSession(cmd, "rm", func(_ context.Context, s *session) error {
		var missing []string
		removed := 0
		for _, id := range args {
			if s.store.Remove(id) {
				removed++
			} else {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%v: %w", missing, store.ErrNotFound)
		}
		printOut(map[string]int{"removed": removed}, nil)
		return nil
	})
}
