package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidAudioExt(t *testing.T) {
	for _, path := range []string{
		"a.wav", "a.mp3", "a.ogg", "a.m4a", "a.flac", "a.aac", "a.wma",
		"A.WAV", "dir/voice.Mp3", "two.dots.ogg",
	} {
		assert.True(t, ValidAudioExt(path), path)
	}

	for _, path := range []string{
		"a.mp4", "a.txt", "a", "a.wav.exe", "",
	} {
		assert.False(t, ValidAudioExt(path), path)
	}
}

func TestValidVideoExt(t *testing.T) {
	for _, path := range []string{"v.mp4", "v.mov", "v.avi", "v.mkv", "v.webm", "V.MP4"} {
		assert.True(t, ValidVideoExt(path), path)
	}
	for _, path := range []string{"v.wav", "v.mpg", "v", ""} {
		assert.False(t, ValidVideoExt(path), path)
	}
}

func TestValidSizeBoundary(t *testing.T) {
	dir := t.TempDir()

	atLimit := filepath.Join(dir, "at_limit.ogg")
	require.NoError(t, os.WriteFile(atLimit, make([]byte, 1024*1024), 0o644))
	assert.True(t, ValidSize(atLimit, 1), "exactly at the limit passes")

	overLimit := filepath.Join(dir, "over_limit.ogg")
	require.NoError(t, os.WriteFile(overLimit, make([]byte, 1024*1024+1), 0o644))
	assert.False(t, ValidSize(overLimit, 1), "one byte over fails")
}

func TestValidSizeMissingFile(t *testing.T) {
	assert.False(t, ValidSize(filepath.Join(t.TempDir(), "missing.wav"), 100))
}

func TestError(t *testing.T) {
	err := NewError("file is too large (maximum %d MB)", 100)
	assert.Equal(t, "file is too large (maximum 100 MB)", err.Error())
}
