package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List context items in insertion order",
		Run:   runList,
	}

	cmd.Flags().StringP("layer", "l", "", "Only items in this layer")
	cmd.Flags().StringP("tag", "t", "", "Only items carrying this tag")
	cmd.Flags().Int("limit", 0, "Max items (0 = all)")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	layerStr, _ := cmd.Flags().GetString("layer")
	tag, _ := cmd.Flags().GetString("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	var layer *model.Layer
	if layerStr != "" {
		l, err := model.ParseLayer(layerStr)
		if err != nil {
			exitErr("list", err)
		}
		layer = &l
	}

	withSession(cmd, "list", func(_ context.Context, s *session) error {
		items := []model.Entry{}
		for _, e := range s.store.Items() {
			if layer != nil && e.Item.Layer != *layer {
				continue
			}
			if tag != "" && !e.Item.HasTag(tag) {
				continue
			}
			items = append(items, e)
			if limit > 0 && len(items) == limit {
				break
			}
		}
		printOut(items, func() string {
			var b strings.Builder
			for _, e := range items {
				fmt.Fprintf(&b, "%s  %-10s %-8s %s\n", e.ID, e.Item.Layer, e.Item.Priority, firstLine(e.Item.Content))
			}
			return strings.TrimRight(b.String(), "\n")
		})
		return nil
	})
}
