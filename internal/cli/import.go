package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the store with a saved JSON snapshot",
		Long:  "Import a snapshot document (stdin or file) in the format written by the json backend.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read snapshot", err)
	}

	snap := model.NewSnapshot(time.Time{})
	if err := json.Unmarshal(data, &snap); err != nil {
		exitErr("parse json", err)
	}

	withSession(cmd, "import", func(ctx context.Context, s *session) error {
		s.store.Restore(snap)
		if !s.gateway.Save(ctx, s.store) {
			return fmt.Errorf("save imported snapshot failed")
		}
		printOut(map[string]any{"ok": true, "imported": s.store.Len()}, nil)
		return nil
	})
}
