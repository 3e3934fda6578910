// Package tokenstore persists the single OpenSubtitles session token between runs.
//
// The cached token is trusted blindly: nothing here knows whether the service
// still accepts it. Writes replace the file atomically, but concurrent
// invocations sharing a cache directory are not serialized and the last writer wins.
package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/angelospk/subgrabber/internal/constants"
	coreerrors "github.com/angelospk/subgrabber/pkg/core/errors"
)

// Store reads and writes the cached token file.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created lazily on Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns the application-scoped cache directory, e.g. ~/.cache/subgrabber.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve user cache directory: %w", coreerrors.ErrIO, err)
	}
	return filepath.Join(base, constants.AppName), nil
}

// Path is the location of the token file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, constants.TokenFileName)
}

// Load returns the cached token. A missing or blank file reports ok=false with no error.
func (s *Store) Load() (token string, ok bool, err error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: read token cache %s: %w", coreerrors.ErrIO, s.Path(), err)
	}

	token = strings.TrimSpace(string(data))
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save replaces the cached token. The value is written to a temporary file in
// the same directory and renamed over the old one, so readers never see a
// partially written token.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("%w: create cache directory %s: %w", coreerrors.ErrIO, s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, constants.TokenFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temporary token file in %s: %w", coreerrors.ErrIO, s.dir, err)
	}
	tmpName := tmp.Name()
	// no-op once the rename has happened
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temporary token file %s: %w", coreerrors.ErrIO, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync temporary token file %s: %w", coreerrors.ErrIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temporary token file %s: %w", coreerrors.ErrIO, tmpName, err)
	}

	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("%w: replace token cache %s: %w", coreerrors.ErrIO, s.Path(), err)
	}
	return nil
}

// Clear removes the cached token. Clearing an empty cache is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove token cache %s: %w", coreerrors.ErrIO, s.Path(), err)
	}
	return nil
}
