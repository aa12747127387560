package core

// scheduler.go runs background maintenance. Exported archives are only
// needed until the client downloads them, so a periodic sweep removes
// exports older than the retention window. The sweep runs once at start and
// then every CheckInterval until the context is cancelled. Failures are
// logged and never stop the scheduler.

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CleanupConfig holds configuration for the export cleanup scheduler.
type CleanupConfig struct {
	MaxAge        time.Duration // Exports older than this are removed (default: 24h)
	CheckInterval time.Duration // How often to sweep (default: 1h)
}

// StartExportCleanup blocks, sweeping the export directory until ctx ends.
func (s *Service) StartExportCleanup(ctx context.Context, cfg CleanupConfig) {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}
	slog.Info("export cleanup started", "max_age", cfg.MaxAge, "interval", cfg.CheckInterval)

	s.runCleanup(cfg.MaxAge)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("export cleanup stopped")
			return
		case <-ticker.C:
			s.runCleanup(cfg.MaxAge)
		}
	}
}

func (s *Service) runCleanup(maxAge time.Duration) {
	start := time.Now()
	removed, err := s.PurgeExports(start.Add(-maxAge))
	if err != nil {
		slog.Error("export cleanup failed", "error", err)
		return
	}
	slog.Info("export cleanup completed",
		"removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// PurgeExports deletes exports (and stray temp files) last modified before
// cutoff and returns how many were removed.
func (s *Service) PurgeExports(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.exportDir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(exportName.MatchString(name) || isTempArchive(name)) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.exportDir, name)); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove export", "name", name, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func isTempArchive(name string) bool {
	ok, _ := filepath.Match(".qrforge-*.tmp", name)
	return ok
}
