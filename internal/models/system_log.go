package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LogEntry is one persisted log line. Rows are append-only and pruned by age.
type LogEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Level     string         `gorm:"size:16;not null;index" json:"level"`
	Message   string         `gorm:"type:text" json:"message"`
	Operation string         `gorm:"size:100;index" json:"operation"`
	RequestID string         `gorm:"size:64;index" json:"request_id"`
	Error     string         `gorm:"type:text" json:"error"`
	Context   datatypes.JSON `gorm:"type:text" json:"context"`
	CreatedAt time.Time      `json:"created_at"`
}
