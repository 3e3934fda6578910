package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	coreerrors "github.com/angelospk/subgrabber/pkg/core/errors"
)

// SubtitlePath derives the subtitle destination for a media file by replacing
// its final extension with ext. "movie.tar.gz" becomes "movie.tar.srt".
// A file without an extension simply gains one.
func SubtitlePath(mediaPath, ext string) string {
	base := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	return base + "." + strings.TrimPrefix(ext, ".")
}

// SubtitleExists reports whether something already occupies the subtitle path.
func SubtitleExists(subtitlePath string) bool {
	_, err := os.Stat(subtitlePath)
	return err == nil
}

// WriteSubtitle writes the decompressed subtitle next to the media file.
func WriteSubtitle(subtitlePath string, content []byte) error {
	if err := os.WriteFile(subtitlePath, content, 0644); err != nil {
		return fmt.Errorf("%w: write subtitle '%s': %w", coreerrors.ErrIO, subtitlePath, err)
	}
	return nil
}
