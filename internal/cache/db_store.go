package cache

import (
	"context"
	"errors"
	"time"

	"github.com/zippicks/critic-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// noExpiry stands in for "never" so the expires_at column stays NOT NULL.
var noExpiry = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// DBStore keeps entries in the transient table, the way the site's options
// table held transients.
type DBStore struct {
	db    *gorm.DB
	table string
	now   func() time.Time
}

func NewDBStore(db *gorm.DB, table string) *DBStore {
	return &DBStore{db: db, table: table, now: time.Now}
}

func (s *DBStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row models.Transient
	err := s.db.WithContext(ctx).Table(s.table).
		Where("key = ? AND expires_at > ?", key, s.now().UTC()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return row.Value, nil
}

func (s *DBStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expires := noExpiry
	if ttl > 0 {
		expires = s.now().UTC().Add(ttl)
	}
	row := models.Transient{Key: key, Value: value, ExpiresAt: expires, UpdatedAt: s.now().UTC()}
	return s.db.WithContext(ctx).Table(s.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Table(s.table).Where("key = ?", key).Delete(&models.Transient{}).Error
}

// Purge deletes expired rows.
func (s *DBStore) Purge(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Table(s.table).
		Where("expires_at <= ?", s.now().UTC()).
		Delete(&models.Transient{})
	return result.RowsAffected, result.Error
}
