package persist

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rcliao/ctxmem/internal/model"
)

// DailyRecord is one line of the daily audit file.
type DailyRecord struct {
	ID          string         `json:"id"`
	Layer       model.Layer    `json:"layer"`
	Priority    model.Priority `json:"priority"`
	ContextType string         `json:"context_type"`
	Timestamp   time.Time      `json:"timestamp"`
	AccessCount int            `json:"access_count"`
	Tags        []string       `json:"tags"`
	Content     string         `json:"content"`
}

// UniversalRecord is one line of the universal export. The schema is
// consumed by external tools and must stay stable.
type UniversalRecord struct {
	DailyRecord
	Relationships []string `json:"relationships"`
}

func newDailyRecord(e model.Entry) DailyRecord {
	tags := e.Item.Tags
	if tags == nil {
		tags = []string{}
	}
	return DailyRecord{
		ID:          e.ID,
		Layer:       e.Item.Layer,
		Priority:    e.Item.Priority,
		ContextType: e.Item.ContextType,
		Timestamp:   e.Item.CreatedAt,
		AccessCount: e.Item.AccessCount,
		Tags:        tags,
		Content:     e.Item.Content,
	}
}

// ExportUniversal writes every item of src to path, one JSON object per line,
// replacing any previous export. An empty path selects ExportPath.
func (g *Gateway) ExportUniversal(_ context.Context, src Source, path string) (string, error) {
	if path == "" {
		path = g.ExportPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range src.Items() {
		rels := e.Item.Relationships
		if rels == nil {
			rels = []string{}
		}
		if err := enc.Encode(UniversalRecord{DailyRecord: newDailyRecord(e), Relationships: rels}); err != nil {
			return "", fmt.Errorf("encode %s: %w", e.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	g.logger.Debug("universal export written", "path", path)
	return path, nil
}

// SnapshotDaily appends the session and long-term items of src to today's
// audit file. Existing lines are never rewritten.
func (g *Gateway) SnapshotDaily(_ context.Context, src Source) (string, error) {
	path := g.DailyPath(g.now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create memory dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open daily snapshot: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	written := 0
	for _, e := range src.Items() {
		if e.Item.Layer != model.LayerSession && e.Item.Layer != model.LayerLongTerm {
			continue
		}
		if err := enc.Encode(newDailyRecord(e)); err != nil {
			return "", fmt.Errorf("encode %s: %w", e.ID, err)
		}
		written++
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("write daily snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close daily snapshot: %w", err)
	}
	g.logger.Info("daily snapshot appended", "path", path, "records", written)
	return path, nil
}
