package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RunLogPattern matches the per-run daemon log files in the log directory.
const RunLogPattern = "ward-*.log"

// PruneRunLogs removes per-run daemon logs in dir whose modification time is
// older than retentionDays. The active run's file and the ward.log pointer are
// never removed. A retentionDays of 0 or less disables pruning. It returns the
// number of files removed; failures on individual files are logged, not
// returned.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, active string) (int, error) {
	if retentionDays <= 0 || dir == "" {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, RunLogPattern))
	if err != nil {
		return 0, fmt.Errorf("match run logs: %w", err)
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keep := absPath(active)

	pruned := 0
	for _, path := range matches {
		if absPath(path) == keep {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log prune failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check ownership of paths.log_dir or raise logging.retention_days"),
				String(FieldImpact, "old run log stays on disk"),
			)
			continue
		}
		pruned++
	}
	if pruned > 0 {
		logger.Info("run logs pruned",
			Int("count", pruned),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_pruned"),
		)
	}
	return pruned, nil
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
