package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/ctxmem/internal/model"
)

const timeLayout = time.RFC3339Nano

// SQLiteBackend keeps the snapshot in SQLite tables. Each save replaces the
// previous snapshot in one transaction.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens or creates a SQLite database at the given path.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS context_items (
		id                TEXT PRIMARY KEY,
		layer             TEXT NOT NULL,
		content           TEXT NOT NULL,
		priority          TEXT NOT NULL,
		context_type      TEXT NOT NULL DEFAULT 'general',
		tags              TEXT,
		created_at        TEXT NOT NULL,
		last_accessed     TEXT NOT NULL,
		access_count      INTEGER NOT NULL DEFAULT 0,
		size_bytes        INTEGER NOT NULL,
		compression_ratio REAL NOT NULL DEFAULT 1.0
	);
	CREATE INDEX IF NOT EXISTS idx_context_items_layer ON context_items(layer);

	CREATE TABLE IF NOT EXISTS relationships (
		from_id TEXT NOT NULL,
		to_id   TEXT NOT NULL,
		PRIMARY KEY (from_id, to_id)
	);

	CREATE TABLE IF NOT EXISTS snapshot_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Save replaces the stored snapshot with snap.
func (b *SQLiteBackend) Save(ctx context.Context, snap model.Snapshot) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"context_items", "relationships", "snapshot_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	insertItem, err := tx.PrepareContext(ctx, `INSERT INTO context_items
		(id, layer, content, priority, context_type, tags, created_at, last_accessed, access_count, size_bytes, compression_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer insertItem.Close()

	for _, layer := range model.Layers {
		for id, item := range snap.ContextStorage[layer] {
			tags, _ := json.Marshal(item.Tags)
			_, err := insertItem.ExecContext(ctx,
				id, layer.String(), item.Content, item.Priority.String(), item.ContextType, string(tags),
				item.CreatedAt.UTC().Format(timeLayout), item.LastAccessed.UTC().Format(timeLayout),
				item.AccessCount, item.SizeBytes, item.CompressionRatio,
			)
			if err != nil {
				return fmt.Errorf("insert item %s: %w", id, err)
			}
		}
	}

	for from, list := range snap.Relationships {
		for _, to := range list {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO relationships (from_id, to_id) VALUES (?, ?)`, from, to); err != nil {
				return fmt.Errorf("insert relationship %s->%s: %w", from, to, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (key, value) VALUES ('timestamp', ?)`,
		snap.Timestamp.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the stored snapshot. A database that was never saved to yields
// ErrNoSnapshot.
func (b *SQLiteBackend) Load(ctx context.Context) (model.Snapshot, error) {
	var stamp string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM snapshot_meta WHERE key = 'timestamp'`).Scan(&stamp)
	if err == sql.ErrNoRows {
		return model.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read snapshot meta: %w", err)
	}
	ts, _ := time.Parse(timeLayout, stamp)
	snap := model.NewSnapshot(ts)

	rows, err := b.db.QueryContext(ctx, `SELECT id, layer, content, priority, context_type, tags,
		created_at, last_accessed, access_count, size_bytes, compression_ratio FROM context_items`)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		id, item, err := scanItem(rows)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("scan item: %w", err)
		}
		snap.ContextStorage[item.Layer][id] = item
	}
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, err
	}

	relRows, err := b.db.QueryContext(ctx, `SELECT from_id, to_id FROM relationships ORDER BY from_id, to_id`)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("query relationships: %w", err)
	}
	defer relRows.Close()

	for relRows.Next() {
		var from, to string
		if err := relRows.Scan(&from, &to); err != nil {
			return model.Snapshot{}, fmt.Errorf("scan relationship: %w", err)
		}
		snap.Relationships[from] = append(snap.Relationships[from], to)
	}
	return snap, relRows.Err()
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (string, model.ContextItem, error) {
	var (
		id                      string
		item                    model.ContextItem
		layer, priority         string
		tagsJSON                sql.NullString
		createdAt, lastAccessed string
	)
	err := row.Scan(
		&id, &layer, &item.Content, &priority, &item.ContextType, &tagsJSON,
		&createdAt, &lastAccessed, &item.AccessCount, &item.SizeBytes, &item.CompressionRatio,
	)
	if err != nil {
		return "", item, err
	}

	if item.Layer, err = model.ParseLayer(layer); err != nil {
		return "", item, err
	}
	if item.Priority, err = model.ParsePriority(priority); err != nil {
		return "", item, err
	}
	item.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	item.LastAccessed, _ = time.Parse(timeLayout, lastAccessed)
	item.Tags = []string{}
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &item.Tags)
	}
	item.Relationships = []string{}
	return id, item, nil
}
