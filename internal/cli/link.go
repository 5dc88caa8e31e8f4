package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	linkCmd := &cobra.Command{
		Use:   "link <id> <id>",
		Short: "Relate two context items",
		Args:  cobra.ExactArgs(2),
		Run:   runLink,
	}

	relatedCmd := &cobra.Command{
		Use:   "related <id>",
		Short: "List items reachable through relationships",
		Args:  cobra.ExactArgs(1),
		Run:   runRelated,
	}
	relatedCmd.Flags().Int("depth", 2, "Max hops")

	RootCmd.AddCommand(linkCmd, relatedCmd)
}

func runLink(cmd *cobra.Command, args []string) {
	withSession(cmd, "link", func(_ context.Context, s *session) error {
		if err := s.store.Link(args[0], args[1]); err != nil {
			return err
		}
		printOut(map[string]string{"linked": args[0], "to": args[1]}, nil)
		return nil
	})
}

func runRelated(cmd *cobra.Command, args []string) {
	depth, _ := cmd.Flags().GetInt("depth")

	withSession(cmd, "related", func(_ context.Context, s *session) error {
		ids := s.store.Related(args[0], depth)
		if ids == nil {
			ids = []string{}
		}
		printOut(ids, func() string { return strings.Join(ids, "\n") })
		return nil
	})
}
