// Package store owns the scratch directory holding every transient file
// the pipeline produces. Names are randomized per request, so concurrent
// requests never collide and the directory needs no locking.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/scribekit/scribekit/pkg/logging"
)

type Store struct {
	dir string
}

// New creates the scratch directory if absent and returns a store rooted
// at it.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("scratch directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the scratch directory root.
func (s *Store) Dir() string {
	return s.dir
}

// TempPath returns a uniquely-named path inside the scratch directory. The
// file is not created; the caller owns whatever it writes there.
func (s *Store) TempPath(prefix, extension string) string {
	name := fmt.Sprintf("%s_%s.%s", prefix, uuid.NewString()[:8], extension)
	return filepath.Join(s.dir, name)
}

// TempDir creates a uniquely-named subdirectory inside the scratch
// directory, for artifacts that come in groups (audio chunks).
func (s *Store) TempDir(prefix string) (string, error) {
	dir := filepath.Join(s.dir, fmt.Sprintf("%s_%s", prefix, uuid.NewString()[:8]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch subdir %s: %w", dir, err)
	}
	return dir, nil
}

// SaveBytes persists raw bytes to path.
func (s *Store) SaveBytes(ctx context.Context, data []byte, path string) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save %d bytes to %s: %w", len(data), path, err)
	}
	logging.NewLogger(ctx).Debugf("saved %d bytes to %s", len(data), path)
	return nil
}

// Remove deletes a single scratch file. Returns true when a file was
// actually removed. A missing file is not an error: release must be safe
// to call from every exit path.
func (s *Store) Remove(ctx context.Context, path string) bool {
	if path == "" {
		return false
	}
	err := os.Remove(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.NewLogger(ctx).Warnf("remove %s: %v", path, err)
		}
		return false
	}
	logging.NewLogger(ctx).Debugf("removed %s", path)
	return true
}

// RemoveAll deletes a scratch subdirectory and everything under it.
func (s *Store) RemoveAll(ctx context.Context, dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logging.NewLogger(ctx).Warnf("remove dir %s: %v", dir, err)
	}
}
