package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "move <id> <layer>",
		Short: "Move a context item to another layer",
		Args:  cobra.ExactArgs(2),
		Run:   runMove,
	}

	RootCmd.AddCommand(cmd)
}

func runMove(cmd *cobra.Command, args []string) {
	layer, err := model.ParseLayer(args[1])
	if err != nil {
		exitErr("move", err)
	}

	withSession(cmd, "move", func(_ context.Context, s *session) error {
		if err := s.store.Move(args[0], layer); err != nil {
			return err
		}
		item, _ := s.store.Peek(args[0])
		printOut(model.Entry{ID: args[0], Item: item}, func() string { return args[0] + " -> " + layer.String() })
		return nil
	})
}
