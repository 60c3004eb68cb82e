// Package sweeper reclaims scratch files and expired logs that per-request
// cleanup missed, guarding against leaks from crashed or abandoned
// requests.
package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/scribekit/scribekit/pkg/logging"
)

const (
	// DefaultStaleAfter is the age beyond which a scratch file is
	// considered abandoned.
	DefaultStaleAfter = time.Hour
	// DefaultInterval is the pause between sweep passes.
	DefaultInterval = time.Hour
)

type Sweeper struct {
	tempDir      string
	logDir       string
	staleAfter   time.Duration
	logRetention time.Duration
	interval     time.Duration
}

type Option func(*Sweeper)

func WithStaleAfter(d time.Duration) Option {
	return func(s *Sweeper) {
		s.staleAfter = d
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		s.interval = d
	}
}

func New(tempDir, logDir string, logRetentionDays int, opts ...Option) *Sweeper {
	s := &Sweeper{
		tempDir:      tempDir,
		logDir:       logDir,
		staleAfter:   DefaultStaleAfter,
		logRetention: time.Duration(logRetentionDays) * 24 * time.Hour,
		interval:     DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps once immediately (covering files orphaned by a previous
// crashed run) and then on every interval tick until ctx is cancelled.
// Cancellation is observed at sleep boundaries, never mid-deletion.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.NewLogger(ctx).Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass: stale scratch files (any extension) and logs past
// retention. Returns the number of files deleted.
func (s *Sweeper) Sweep(ctx context.Context) int {
	deleted := s.cleanDir(ctx, s.tempDir, s.staleAfter)
	deleted += s.cleanDir(ctx, s.logDir, s.logRetention)
	return deleted
}

// cleanDir deletes entries in dir older than maxAge. One unlinkable file
// is logged and skipped; it never aborts the rest of the pass. Abandoned
// chunk subdirectories are removed whole once stale.
func (s *Sweeper) cleanDir(ctx context.Context, dir string, maxAge time.Duration) int {
	log := logging.NewLogger(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("sweep %s: %v", dir, err)
		}
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			log.Warnf("sweep stat %s: %v", path, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if entry.IsDir() {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}
		if err != nil {
			log.Warnf("sweep remove %s: %v", path, err)
			continue
		}
		deleted++
		log.Debugf("swept stale file %s", path)
	}

	if deleted > 0 {
		log.Infof("swept %d stale files from %s", deleted, dir)
	}
	return deleted
}
