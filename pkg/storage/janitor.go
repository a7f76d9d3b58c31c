package storage

import (
	"context"
	"path"
	"time"

	"github.com/spf13/afero"

	"github.com/depotworks/depot/pkg/xlog"
)

const (
	// SweepInterval is how often abandoned upload temp files are collected.
	SweepInterval = time.Hour
	// SweepMaxAge is how old a temp file must be before it is collected. An
	// abrupt client disconnect mid-upload leaves its temp file behind until
	// the sweep catches it.
	SweepMaxAge = time.Hour
)

// SweepTemp removes temp files older than maxAge and returns how many were
// removed.
func (s *Storage) SweepTemp(maxAge time.Duration) (int, error) {
	dir := path.Join(s.root, tempDir)
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return 0, nil // nothing to sweep yet
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || entry.ModTime().After(cutoff) {
			continue
		}
		if err := s.fs.Remove(path.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// RunSweeper collects abandoned temp files on a fixed interval until ctx is
// cancelled.
func (s *Storage) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.SweepTemp(SweepMaxAge)
			if err != nil {
				xlog.C(ctx).Warn("temp sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				xlog.C(ctx).Info("swept abandoned upload files", "count", removed)
			}
		}
	}
}
