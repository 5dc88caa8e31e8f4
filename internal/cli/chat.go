package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/ctxmem/internal/model"
)

func init() {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Work with the chat transcript",
	}

	addCmd := &cobra.Command{
		Use:   "add <user|assistant|system> [content]",
		Short: "Append a message to the transcript",
		Long:  "Append a message. Content can follow the role or be piped via stdin.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runChatAdd,
	}
	addCmd.Flags().StringToString("meta", nil, "Metadata as key=value pairs")

	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Render recent messages oldest first within a token budget",
		Run:   runChatPrompt,
	}
	addPromptFlags(promptCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent messages",
		Run:   runChatList,
	}
	listCmd.Flags().IntP("limit", "l", 20, "Max messages")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the transcript",
		Run:   runChatClear,
	}

	chatCmd.AddCommand(addCmd, promptCmd, listCmd, clearCmd)
	RootCmd.AddCommand(chatCmd)
}

func runChatAdd(cmd *cobra.Command, args []string) {
	meta, _ := cmd.Flags().GetStringToString("meta")
	role := model.Role(strings.ToLower(args[0]))

	content, err := readContent(args[1:])
	if err != nil {
		exitErr("chat add", err)
	}

	withSession(cmd, "chat add", func(_ context.Context, s *session) error {
		msg, err := s.chat.Append(role, content, meta)
		if err != nil {
			return err
		}
		printOut(msg, func() string { return msg.ID })
		return nil
	})
}

func runChatPrompt(cmd *cobra.Command, args []string) {
	withSession(cmd, "chat prompt", func(_ context.Context, s *session) error {
		res, err := s.chat.BuildPrompt(promptParams(cmd, s.cfg))
		if err != nil {
			return err
		}
		printOut(res, func() string { return res.PromptText })
		return nil
	})
}

func runChatList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	withSession(cmd, "chat list", func(_ context.Context, s *session) error {
		msgs, err := s.chat.Recent(limit)
		if err != nil {
			return err
		}
		if msgs == nil {
			msgs = []model.ChatMessage{}
		}
		printOut(msgs, func() string {
			var b strings.Builder
			for _, m := range msgs {
				fmt.Fprintf(&b, "[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), m.Role.Label(), m.Content)
			}
			return strings.TrimRight(b.String(), "\n")
		})
		return nil
	})
}

func runChatClear(cmd *cobra.Command, args []string) {
	withSession(cmd, "chat clear", func(_ context.Context, s *session) error {
		if err := s.chat.Clear(); err != nil {
			return err
		}
		printOut(map[string]string{"cleared": s.chat.Path()}, nil)
		return nil
	})
}
