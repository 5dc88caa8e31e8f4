package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/model"
	"github.com/rcliao/ctxmem/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a context item",
		Long:  "Add a context item. Content can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("type", "t", "general", "Context type: general, code, error, task, user_input, ...")
	cmd.Flags().StringP("priority", "p", "medium", "Priority: critical, high, medium, low, archive")
	cmd.Flags().StringP("layer", "l", "immediate", "Layer: immediate, session, long_term, compressed")
	cmd.Flags().String("tags", "", "Comma-separated tags")
	cmd.Flags().String("related", "", "Comma-separated ids to link")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	contextType, _ := cmd.Flags().GetString("type")
	priorityStr, _ := cmd.Flags().GetString("priority")
	layerStr, _ := cmd.Flags().GetString("layer")
	tagsStr, _ := cmd.Flags().GetString("tags")
	relatedStr, _ := cmd.Flags().GetString("related")

	content, err := readContent(args)
	if err != nil {
		exitErr("add", err)
	}
	if strings.TrimSpace(content) == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}
	priority, err := model.ParsePriority(priorityStr)
	if err != nil {
		exitErr("add", err)
	}
	layer, err := model.ParseLayer(layerStr)
	if err != nil {
		exitErr("add", err)
	}

	withSession(cmd, "add", func(_ context.Context, s *session) error {
		id, err := s.store.Add(store.AddParams{
			Content:     content,
			ContextType: contextType,
			Priority:    priority,
			Layer:       layer,
			Tags:        splitList(tagsStr),
			Related:     splitList(relatedStr),
		})
		if err != nil {
			return err
		}
		printOut(addOutput(s.store, id), func() string { return id })
		return nil
	})
}

// evictedItem is printed when the watchdog dropped the item Add just stored.
type evictedItem struct {
	ID      string `json:"id"`
	Evicted bool   `json:"evicted"`
}

func addOutput(st *store.Store, id string) any {
	item, ok := st.Peek(id)
	if !ok {
		return evictedItem{ID: id, Evicted: true}
	}
	return model.Entry{ID: id, Item: item}
}
