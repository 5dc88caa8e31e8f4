package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/model"
	"github.com/rcliao/ctxmem/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Read a context item and record the access",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	withSession(cmd, "get", func(_ context.Context, s *session) error {
		item, ok := s.store.Get(args[0])
		if !ok {
			return fmt.Errorf("%s: %w", args[0], store.ErrNotFound)
		}
		printOut(model.Entry{ID: args[0], Item: item}, func() string { return item.Content })
		return nil
	})
}
