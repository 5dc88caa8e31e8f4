package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Lexical search over context items",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 10, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	withSession(cmd, "search", func(_ context.Context, s *session) error {
		results := s.store.Search(query, limit)
		printOut(results, func() string {
			var b strings.Builder
			for _, r := range results {
				fmt.Fprintf(&b, "%s  %.2f  %s\n", r.ID, r.Similarity, firstLine(r.Item.Content))
			}
			return strings.TrimRight(b.String(), "\n")
		})
		return nil
	})
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
