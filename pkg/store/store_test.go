package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "scratch"))
	require.NoError(t, err)
	return s
}

func TestNewCreatesScratchDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "scratch")
	s, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewRejectsEmptyDir(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}

func TestTempPathIsRandomizedAndScoped(t *testing.T) {
	s := newTestStore(t)

	first := s.TempPath("voice_42", "ogg")
	second := s.TempPath("voice_42", "ogg")

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(filepath.Base(first), "voice_42_"))
	assert.True(t, strings.HasSuffix(first, ".ogg"))
	assert.Equal(t, s.Dir(), filepath.Dir(first))
}

func TestSaveBytesAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	path := s.TempPath("voice_1", "ogg")
	require.NoError(t, s.SaveBytes(ctx, []byte("audio bytes"), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio bytes"), data)

	assert.True(t, s.Remove(ctx, path))
	assert.NoFileExists(t, path)

	// Releasing twice is safe.
	assert.False(t, s.Remove(ctx, path))
	assert.False(t, s.Remove(ctx, ""))
}

func TestTempDirAndRemoveAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	dir, err := s.TempDir("chunks")
	require.NoError(t, err)
	require.DirExists(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunk_000.wav"), []byte("x"), 0o644))

	s.RemoveAll(ctx, dir)
	assert.NoDirExists(t, dir)
}
