package logging

import (
	"log/slog"
	"time"

	"github.com/zippicks/critic-backend/internal/models"
	"gorm.io/gorm"
)

// PruneLogs deletes log rows older than retention and returns how many went.
func PruneLogs(db *gorm.DB, table string, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := db.Table(table).Where("timestamp < ?", cutoff).Delete(&models.LogEntry{})
	return result.RowsAffected, result.Error
}

// StartCleanup runs a daily goroutine that prunes log rows older than retentionDays.
func StartCleanup(db *gorm.DB, table string, retentionDays int, done chan struct{}) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, err := PruneLogs(db, table, retention)
				if err != nil {
					slog.Error("log cleanup failed", "error", err)
				} else if deleted > 0 {
					slog.Info("log cleanup completed", "deleted", deleted)
				}
			case <-done:
				return
			}
		}
	}()
}
