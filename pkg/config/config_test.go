package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEMP_DIR", filepath.Join(dir, "temp"))
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("MAX_FILE_SIZE_MB", "")
	t.Setenv("MAX_CONCURRENT_TASKS", "")
	t.Setenv("TASK_TIMEOUT_SEC", "")
	t.Setenv("CHUNK_DURATION_SEC", "")
	t.Setenv("LONGFORM_TOKEN", "")
	t.Setenv("ALLOWED_USERS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.MaxFileSizeMB)
	assert.Equal(t, 3, cfg.MaxConcurrentTasks)
	assert.Equal(t, 300*time.Second, cfg.TaskTimeout)
	assert.Equal(t, 20, cfg.ChunkSeconds)
	assert.Equal(t, 16000, cfg.SampleRate)
	assert.Equal(t, 1, cfg.Channels)
	assert.Empty(t, cfg.LongFormToken)

	assert.DirExists(t, cfg.TempDir)
	assert.DirExists(t, cfg.LogDir)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEMP_DIR", filepath.Join(dir, "temp"))
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("MAX_FILE_SIZE_MB", "50")
	t.Setenv("MAX_CONCURRENT_TASKS", "5")
	t.Setenv("TASK_TIMEOUT_SEC", "60")
	t.Setenv("CHUNK_DURATION_SEC", "30")
	t.Setenv("LONGFORM_TOKEN", "hf-token")
	t.Setenv("ALLOWED_USERS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MaxFileSizeMB)
	assert.Equal(t, 5, cfg.MaxConcurrentTasks)
	assert.Equal(t, time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 30, cfg.ChunkSeconds)
	assert.Equal(t, "hf-token", cfg.LongFormToken)
}

func TestLoadRejectsZeroConcurrency(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEMP_DIR", filepath.Join(dir, "temp"))
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("MAX_CONCURRENT_TASKS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestUserAllowed(t *testing.T) {
	open := &Config{}
	assert.True(t, open.UserAllowed(123), "empty allow-list grants everyone")

	restricted := &Config{AllowedUsers: []int64{1, 2}}
	assert.True(t, restricted.UserAllowed(1))
	assert.False(t, restricted.UserAllowed(3))
}

func TestLoadAllowedUsers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowed_users.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"allowed_users": [10, 20]}`), 0o644))

	users, err := LoadAllowedUsers(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20}, users)
}

func TestLoadAllowedUsersMissingFile(t *testing.T) {
	users, err := LoadAllowedUsers(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Nil(t, users)
}

func TestLoadAllowedUsersMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowed_users.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))

	_, err := LoadAllowedUsers(path)
	assert.Error(t, err)
}
