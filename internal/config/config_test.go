package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(100*1024*1024), cfg.BudgetBytes())
	assert.Equal(t, int64(80*1024*1024), cfg.WatchdogBytes())
	assert.Equal(t, time.Hour, cfg.CleanupMaxAge())
	assert.Equal(t, 30*time.Second, cfg.MaintenanceInterval())
	assert.Equal(t, 0.5, cfg.Memory.CleanupRelevanceFloor)
}

func TestParseConfigOverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
memory:
  max_memory_mb: 10
storage:
  backend: sqlite
`))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Memory.MaxMemoryMB)
	assert.Equal(t, 80, cfg.Memory.WatchdogMB, "unset keys keep defaults")
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "@daily", cfg.Storage.SnapshotSchedule)
}

func TestParseConfigRejectsBadYAML(t *testing.T) {
	_, err := ParseConfig([]byte("memory: [unclosed"))
	assert.Error(t, err)
}

func TestLoadExpandsEnvAndOverridesDataDir(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CTXMEM_TEST_HEADER", "You are a careful reviewer.")
	t.Setenv(EnvDataDir, filepath.Join(dir, "override"))

	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
data_dir: /somewhere/else
prompt:
  system_header: ${CTXMEM_TEST_HEADER}
  max_tokens: 4000
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "You are a careful reviewer.", cfg.Prompt.SystemHeader)
	assert.Equal(t, 4000, cfg.Prompt.MaxTokens)
	assert.Equal(t, filepath.Join(dir, "override"), cfg.DataDir)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Cleanup(func() { os.Unsetenv("CTXMEM_TEST_DOTENV_BACKEND") })

	writeFile(t, filepath.Join(dir, ".env"), "CTXMEM_TEST_DOTENV_BACKEND=sqlite\n")
	writeFile(t, filepath.Join(dir, "ctxmem.yaml"), "storage:\n  backend: ${CTXMEM_TEST_DOTENV_BACKEND}\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvDataDir, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadUsesEnvConfigPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "from-env.yaml")
	writeFile(t, path, "chat:\n  recent_limit: 7\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvDataDir, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Chat.RecentLimit)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "storage:\n  backend: redis\nmemory:\n  cleanup_relevance_floor: 1.5\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
	assert.Contains(t, err.Error(), "cleanup_relevance_floor")
}

func TestExpandEnvVarsLeavesUnsetReferences(t *testing.T) {
	t.Setenv("CTXMEM_TEST_SET", "yes")
	got := expandEnvVars("a: ${CTXMEM_TEST_SET}\nb: ${CTXMEM_TEST_UNSET_VAR}\nc: $CTXMEM_TEST_SET")
	assert.Equal(t, "a: yes\nb: ${CTXMEM_TEST_UNSET_VAR}\nc: yes", got)
}

func TestStoragePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	assert.Equal(t, filepath.Join("/data", "context", "persistent_context.json"), cfg.StoragePath())

	cfg.Storage.Backend = BackendSQLite
	assert.Equal(t, filepath.Join("/data", "context", "context.db"), cfg.StoragePath())

	cfg.Storage.Path = "db/custom.db"
	assert.Equal(t, filepath.Join("/data", "db", "custom.db"), cfg.StoragePath())

	cfg.Storage.Path = "/abs/ctx.db"
	assert.Equal(t, "/abs/ctx.db", cfg.StoragePath())

	assert.Equal(t, filepath.Join("/data", "messages", "chat.jsonl"), cfg.ChatPath())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "component", "store")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "store", rec["component"])
}

// chdir changes the working directory to dir for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
