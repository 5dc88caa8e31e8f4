package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rcliao/ctxmem/internal/chat"
	"github.com/rcliao/ctxmem/internal/config"
	"github.com/rcliao/ctxmem/internal/persist"
	"github.com/rcliao/ctxmem/internal/store"
)

// session is one open store with its gateway and transcript.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	gateway *persist.Gateway
	chat    *chat.Transcript

	// savedVersion is the store version known to be persisted already.
	savedVersion uint64
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

func openBackend(cfg *config.Config) (persist.Backend, error) {
	if cfg.Storage.Backend == config.BackendSQLite {
		return persist.NewSQLiteBackend(cfg.StoragePath())
	}
	return persist.NewJSONBackend(cfg.StoragePath()), nil
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Storage.Backend, err)
	}
	gw := persist.NewGateway(backend, persist.Options{
		DataDir:      cfg.DataDir,
		ExportOnSave: cfg.Storage.ExportOnSave,
	}, logger)

	st := store.New(store.Config{
		BudgetBytes:   cfg.BudgetBytes(),
		WatchdogBytes: cfg.WatchdogBytes(),
	}, logger)
	st.Restore(gw.Load(ctx))

	tr := chat.New(chat.Config{
		Path:             cfg.ChatPath(),
		AutoSummaryEvery: cfg.Chat.AutoSummaryEvery,
		RecentLimit:      cfg.Chat.RecentLimit,
	}, st, logger)

	return &session{cfg: cfg, logger: logger, store: st, gateway: gw, chat: tr}, nil
}

// close saves the store if it changed since the last known save and releases
// the backend.
func (s *session) close(ctx context.Context) {
	if s.store.Version() != s.savedVersion {
		s.gateway.Save(ctx, s.store)
	}
	if err := s.gateway.Close(); err != nil {
		s.logger.Warn("close backend", "error", err)
	}
}

// markSaved records that version v has been persisted by someone else, so
// close does not write it again.
func (s *session) markSaved(v uint64) {
	s.savedVersion = v
}

// runSession opens a session, runs fn and saves on every exit path,
// including errors, before returning fn's error.
func runSession(ctx context.Context, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer s.close(ctx)
	return fn(ctx, s)
}

// withSession is runSession for command handlers: errors exit the process.
func withSession(cmd *cobra.Command, msg string, fn func(ctx context.Context, s *session) error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := runSession(ctx, fn); err != nil {
		exitErr(msg, err)
	}
}

// readContent joins args, or reads stdin when it is piped and args are empty.
func readContent(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}
