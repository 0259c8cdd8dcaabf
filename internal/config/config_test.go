package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOG_MAX_SIZE_MB", "")
	t.Setenv("CACHE_TTL", "")

	cfg := Load()
	assert.Equal(t, 10, cfg.LogMaxSizeMB)
	assert.Equal(t, 5, cfg.LogMaxBackups)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "zp_", cfg.TablePrefix)
	assert.Equal(t, "memory", cfg.CacheBackend)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_MAX_SIZE_MB", "25")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("RATE_LIMIT_MAX", "not-a-number")
	t.Setenv("TABLE_PREFIX", "wp_")

	cfg := Load()
	assert.Equal(t, 25, cfg.LogMaxSizeMB)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 60, cfg.RateLimitMax)
	assert.Equal(t, "wp_", cfg.TablePrefix)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}

func TestAdminConfigured(t *testing.T) {
	assert.False(t, (&Config{}).AdminConfigured())
	assert.True(t, (&Config{AdminToken: "x"}).AdminConfigured())
	assert.False(t, (&Config{JWTSecret: "s"}).AdminConfigured())
	assert.True(t, (&Config{JWTSecret: "s", AdminEmails: "a@b.c"}).AdminConfigured())
}
