package models

import "time"

// Transient is a persisted cache row. Rows past ExpiresAt are treated as absent.
type Transient struct {
	Key       string    `gorm:"size:191;primaryKey" json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
