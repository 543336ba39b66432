package acquire

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PurgeStale removes regular files older than maxAge from dir.
// Idempotent: a missing directory or already-removed file is not an
// error. Runs before every acquisition and on the hourly sweep.
func PurgeStale(dir string, maxAge time.Duration) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("purge: read dir", "dir", dir, "error", err)
		}
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("purge: remove", "path", path, "error", err)
			continue
		}
		slog.Debug("purged stale file", "path", path)
	}
}
