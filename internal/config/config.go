// Package config loads ctxmem settings from YAML with .env and environment
// variable support.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config is the full ctxmem configuration.
type Config struct {
	// DataDir holds the snapshot, exports, daily memory files and transcript.
	DataDir string `yaml:"data_dir"`

	Memory  MemoryConfig  `yaml:"memory"`
	Storage StorageConfig `yaml:"storage"`
	Chat    ChatConfig    `yaml:"chat"`
	Prompt  PromptConfig  `yaml:"prompt"`
	Logging LoggingConfig `yaml:"logging"`
}

// MemoryConfig bounds the store and drives background maintenance.
type MemoryConfig struct {
	MaxMemoryMB                int     `yaml:"max_memory_mb"`
	WatchdogMB                 int     `yaml:"watchdog_mb"`
	CleanupMaxAgeSeconds       int     `yaml:"cleanup_max_age_seconds"`
	CleanupRelevanceFloor      float64 `yaml:"cleanup_relevance_floor"`
	MaintenanceIntervalSeconds int     `yaml:"maintenance_interval_seconds"`
}

// StorageConfig selects the snapshot backend.
type StorageConfig struct {
	// Backend is "json" or "sqlite".
	Backend string `yaml:"backend"`
	// Path overrides the backend file location. Relative paths are resolved
	// against DataDir.
	Path             string `yaml:"path"`
	ExportOnSave     bool   `yaml:"export_on_save"`
	SnapshotSchedule string `yaml:"snapshot_schedule"`
}

type ChatConfig struct {
	AutoSummaryEvery int `yaml:"auto_summary_every"`
	RecentLimit      int `yaml:"recent_limit"`
}

type PromptConfig struct {
	MaxTokens           int    `yaml:"max_tokens"`
	ReservedReplyTokens int    `yaml:"reserved_reply_tokens"`
	SystemHeader        string `yaml:"system_header"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	bytesPerMB = 1024 * 1024
)

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".ctxmem",
		Memory: MemoryConfig{
			MaxMemoryMB:                100,
			WatchdogMB:                 80,
			CleanupMaxAgeSeconds:       3600,
			CleanupRelevanceFloor:      0.5,
			MaintenanceIntervalSeconds: 30,
		},
		Storage: StorageConfig{
			Backend:          BackendJSON,
			ExportOnSave:     true,
			SnapshotSchedule: "@daily",
		},
		Chat: ChatConfig{
			AutoSummaryEvery: 5,
			RecentLimit:      30,
		},
		Prompt: PromptConfig{
			MaxTokens:           2000,
			ReservedReplyTokens: 500,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.DataDir == "" {
		problems = append(problems, "data_dir is required")
	}
	if c.Memory.MaxMemoryMB <= 0 {
		problems = append(problems, "memory.max_memory_mb must be positive")
	}
	if c.Memory.WatchdogMB <= 0 {
		problems = append(problems, "memory.watchdog_mb must be positive")
	}
	if c.Memory.CleanupMaxAgeSeconds <= 0 {
		problems = append(problems, "memory.cleanup_max_age_seconds must be positive")
	}
	if f := c.Memory.CleanupRelevanceFloor; f < 0 || f > 1 {
		problems = append(problems, "memory.cleanup_relevance_floor must be within [0,1]")
	}
	if c.Memory.MaintenanceIntervalSeconds <= 0 {
		problems = append(problems, "memory.maintenance_interval_seconds must be positive")
	}
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q is not json or sqlite", c.Storage.Backend))
	}
	if c.Chat.AutoSummaryEvery <= 0 {
		problems = append(problems, "chat.auto_summary_every must be positive")
	}
	if c.Chat.RecentLimit <= 0 {
		problems = append(problems, "chat.recent_limit must be positive")
	}
	if c.Prompt.MaxTokens <= 0 {
		problems = append(problems, "prompt.max_tokens must be positive")
	}
	if c.Prompt.ReservedReplyTokens < 0 {
		problems = append(problems, "prompt.reserved_reply_tokens must not be negative")
	}
	if _, ok := parseLevel(c.Logging.Level); !ok {
		problems = append(problems, fmt.Sprintf("logging.level %q is unknown", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not text or json", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// BudgetBytes is the retention budget.
func (c *Config) BudgetBytes() int64 { return int64(c.Memory.MaxMemoryMB) * bytesPerMB }

// WatchdogBytes is the size that triggers automatic optimization.
func (c *Config) WatchdogBytes() int64 { return int64(c.Memory.WatchdogMB) * bytesPerMB }

func (c *Config) CleanupMaxAge() time.Duration {
	return time.Duration(c.Memory.CleanupMaxAgeSeconds) * time.Second
}

func (c *Config) MaintenanceInterval() time.Duration {
	return time.Duration(c.Memory.MaintenanceIntervalSeconds) * time.Second
}

// StoragePath resolves the snapshot location for the configured backend.
func (c *Config) StoragePath() string {
	p := c.Storage.Path
	if p == "" {
		name := "persistent_context.json"
		if c.Storage.Backend == BackendSQLite {
			name = "context.db"
		}
		p = filepath.Join("context", name)
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// ChatPath is the transcript location.
func (c *Config) ChatPath() string {
	return filepath.Join(c.DataDir, "messages", "chat.jsonl")
}
