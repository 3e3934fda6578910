package fileops_test

import (
	"os"
	"path/filepath"
	"testing"

	coreerrors "github.com/angelospk/subgrabber/pkg/core/errors"
	"github.com/angelospk/subgrabber/pkg/core/fileops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtitlePath(t *testing.T) {
	tests := []struct {
		name      string
		mediaPath string
		ext       string
		expected  string
	}{
		{name: "Simple", mediaPath: "movie.mp4", ext: "srt", expected: "movie.srt"},
		{name: "Only final extension stripped", mediaPath: "movie.tar.gz", ext: "srt", expected: "movie.tar.srt"},
		{name: "Leading dot in ext", mediaPath: "movie.mkv", ext: ".srt", expected: "movie.srt"},
		{name: "Directory with dots", mediaPath: filepath.Join("my.dir", "movie"), ext: "srt", expected: filepath.Join("my.dir", "movie") + ".srt"},
		{name: "Nested path", mediaPath: filepath.Join("a", "b", "Show.S01E02.720p.mkv"), ext: "srt", expected: filepath.Join("a", "b", "Show.S01E02.720p.srt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fileops.SubtitlePath(tt.mediaPath, tt.ext))
		})
	}
}

func TestSubtitleExists(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "movie.srt")
	require.NoError(t, os.WriteFile(existing, []byte("1\n"), 0644))

	assert.True(t, fileops.SubtitleExists(existing))
	assert.False(t, fileops.SubtitleExists(filepath.Join(dir, "other.srt")))
}

func TestWriteSubtitle(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "movie.srt")

	require.NoError(t, fileops.WriteSubtitle(target, []byte("subtitle body")))
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "subtitle body", string(content))

	err = fileops.WriteSubtitle(filepath.Join(dir, "missing", "movie.srt"), []byte("x"))
	assert.ErrorIs(t, err, coreerrors.ErrIO)
}
