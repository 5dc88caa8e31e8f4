// Package chat keeps the append-only chat transcript and folds periodic
// summaries of it into the context store.
package chat

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/ctxmem/internal/model"
	"github.com/rcliao/ctxmem/internal/prompt"
	"github.com/rcliao/ctxmem/internal/store"
	"github.com/rcliao/ctxmem/internal/token"
)

// ErrInvalidRole is returned when a message role is not user, assistant or system.
var ErrInvalidRole = errors.New("invalid chat role")

const (
	DefaultAutoSummaryEvery = 5
	DefaultRecentLimit      = 30

	summarySnippetRunes = 200
	maxLineBytes        = 16 * 1024 * 1024
)

// Recorder receives transcript summaries. *store.Store satisfies it.
type Recorder interface {
	Add(p store.AddParams) (string, error)
}

// Config configures a Transcript.
type Config struct {
	Path string
	// AutoSummaryEvery is the number of appended messages between summaries.
	AutoSummaryEvery int
	// RecentLimit bounds how many messages BuildPrompt considers.
	RecentLimit int
	Now         func() time.Time
}

// Transcript is a JSONL chat log.
type Transcript struct {
	mu        sync.Mutex
	path      string
	every     int
	recent    int
	count     int // messages in the file; -1 until first counted
	recorder  Recorder
	assembler *prompt.Assembler
	entropy   *rand.Rand
	now       func() time.Time
	logger    *slog.Logger
}

// New opens a transcript at cfg.Path. The file is created on first append.
// recorder may be nil to disable auto-summaries.
func New(cfg Config, recorder Recorder, logger *slog.Logger) *Transcript {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AutoSummaryEvery <= 0 {
		cfg.AutoSummaryEvery = DefaultAutoSummaryEvery
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Transcript{
		path:      cfg.Path,
		every:     cfg.AutoSummaryEvery,
		recent:    cfg.RecentLimit,
		count:     -1,
		recorder:  recorder,
		assembler: prompt.New(nil, nil),
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       cfg.Now,
		logger:    logger.With("component", "chat"),
	}
}

// Path returns the transcript file location.
func (t *Transcript) Path() string { return t.path }

// Append writes one message and returns it. Every AutoSummaryEvery messages
// a summary of the latest turns is added to the recorder; summary failures
// are logged and never returned.
func (t *Transcript) Append(role model.Role, content string, metadata map[string]string) (model.ChatMessage, error) {
	if !role.Valid() {
		return model.ChatMessage{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if strings.TrimSpace(content) == "" {
		return model.ChatMessage{}, fmt.Errorf("content is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count < 0 {
		n, err := t.countLines()
		if err != nil {
			return model.ChatMessage{}, err
		}
		t.count = n
	}

	now := t.now()
	msg := model.ChatMessage{
		ID:        ulid.MustNew(ulid.Timestamp(now), t.entropy).String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
		Metadata:  metadata,
	}
	if err := t.write(msg); err != nil {
		return model.ChatMessage{}, err
	}
	t.count++

	if t.recorder != nil && t.count%t.every == 0 {
		t.summarize()
	}
	return msg, nil
}

func (t *Transcript) write(msg model.ChatMessage) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create chat dir: %w", err)
	}
	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append message: %w", err)
	}
	return f.Close()
}

// Recent returns up to limit of the newest messages, oldest first.
// Malformed lines are skipped.
func (t *Transcript) Recent(limit int) ([]model.ChatMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tail(limit)
}

func (t *Transcript) tail(limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	ring := make([]model.ChatMessage, limit)
	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var msg model.ChatMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			t.logger.Warn("skipping malformed transcript line", "line", lineNo, "error", err)
			continue
		}
		ring[n%limit] = msg
		n++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	if n <= limit {
		return ring[:n], nil
	}
	start := n % limit
	return append(ring[start:], ring[:start]...), nil
}

func (t *Transcript) countLines() (int, error) {
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		if len(strings.TrimSpace(sc.Text())) > 0 {
			n++
		}
	}
	return n, sc.Err()
}

// BuildPrompt renders the most recent messages oldest first within the
// token budget.
func (t *Transcript) BuildPrompt(p prompt.Params) (prompt.Result, error) {
	msgs, err := t.Recent(t.recent)
	if err != nil {
		return prompt.Result{}, err
	}
	turns := make([]prompt.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = prompt.Turn{ID: m.ID, Role: m.Role, Content: m.Content}
	}
	return t.assembler.Chronological(p, turns, t.recent), nil
}

// Clear truncates the transcript.
func (t *Transcript) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.Truncate(t.path, 0); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear transcript: %w", err)
	}
	t.count = 0
	t.logger.Info("transcript cleared", "path", t.path)
	return nil
}

// summarize runs with t.mu held.
func (t *Transcript) summarize() {
	recent, err := t.tail(t.every)
	if err != nil {
		t.logger.Warn("auto-summary skipped", "error", err)
		return
	}
	text := Summarize(recent, t.now())
	if text == "" {
		return
	}
	id, err := t.recorder.Add(store.AddParams{
		Content:     text,
		ContextType: "chat_summary",
		Priority:    model.PriorityHigh,
		Layer:       model.LayerSession,
		Tags:        []string{"chat", "summary"},
	})
	if err != nil {
		t.logger.Warn("auto-summary not recorded", "error", err)
		return
	}
	t.logger.Debug("transcript summarized", "id", id, "turns", len(recent))
}

// Summarize builds an extractive summary: the first user message, the last
// assistant message and the number of turns covered.
func Summarize(msgs []model.ChatMessage, at time.Time) string {
	if len(msgs) == 0 {
		return ""
	}
	var firstUser, lastAssistant *model.ChatMessage
	for i := range msgs {
		switch msgs[i].Role {
		case model.RoleUser:
			if firstUser == nil {
				firstUser = &msgs[i]
			}
		case model.RoleAssistant:
			lastAssistant = &msgs[i]
		}
	}

	var pieces []string
	if firstUser != nil {
		pieces = append(pieces, "User start: "+token.Truncate(firstUser.Content, summarySnippetRunes))
	}
	if lastAssistant != nil {
		pieces = append(pieces, "Assistant key: "+token.Truncate(lastAssistant.Content, summarySnippetRunes))
	}
	pieces = append(pieces, fmt.Sprintf("Turns summarized: %d at %s", len(msgs), at.Format(time.RFC3339)))
	return strings.Join(pieces, "\n")
}
