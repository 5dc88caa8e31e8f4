package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/config"
	"github.com/rcliao/ctxmem/internal/prompt"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Pack the most relevant context into a token-bounded prompt",
		Run:   runPrompt,
	}
	addPromptFlags(cmd)

	RootCmd.AddCommand(cmd)
}

func addPromptFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("max-tokens", "b", 0, "Token budget (default from config)")
	cmd.Flags().Int("reserve", -1, "Tokens reserved for the reply (default from config)")
	cmd.Flags().String("header", "", "System header (default from config)")
}

func promptParams(cmd *cobra.Command, cfg *config.Config) prompt.Params {
	p := prompt.Params{
		MaxTokens:           cfg.Prompt.MaxTokens,
		ReservedReplyTokens: cfg.Prompt.ReservedReplyTokens,
		SystemHeader:        cfg.Prompt.SystemHeader,
	}
	if v, _ := cmd.Flags().GetInt("max-tokens"); v > 0 {
		p.MaxTokens = v
	}
	if v, _ := cmd.Flags().GetInt("reserve"); v >= 0 {
		p.ReservedReplyTokens = v
	}
	if v, _ := cmd.Flags().GetString("header"); v != "" {
		p.SystemHeader = v
	}
	return p
}

func runPrompt(cmd *cobra.Command, args []string) {
	withSession(cmd, "prompt", func(_ context.Context, s *session) error {
		res := s.store.BuildPrompt(promptParams(cmd, s.cfg))
		printOut(res, func() string { return res.PromptText })
		return nil
	})
}
