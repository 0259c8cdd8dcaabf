package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Table naming
	TablePrefix      string
	TablesConfigPath string

	// Logging
	LogLevel         string
	LogFile          string
	LogMaxSizeMB     int
	LogMaxBackups    int
	LogDBLevel       string
	LogRetentionDays int

	// Cache
	CacheBackend string
	CacheTTL     time.Duration

	// Admin
	JWTSecret      string
	AdminEmails    string
	AdminToken     string
	AdminTokenHash string

	// Rate limiting
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Server
	Port        string
	CORSOrigins string
	SiteURL     string
}

func Load() *Config {
	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "zippicks"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		TablePrefix:      getEnv("TABLE_PREFIX", "zp_"),
		TablesConfigPath: getEnv("TABLES_CONFIG_PATH", ""),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", "logs/zippicks.log"),
		LogMaxSizeMB:     parseInt(getEnv("LOG_MAX_SIZE_MB", "10"), 10),
		LogMaxBackups:    parseInt(getEnv("LOG_MAX_BACKUPS", "5"), 5),
		LogDBLevel:       getEnv("LOG_DB_LEVEL", "warning"),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),

		CacheBackend: getEnv("CACHE_BACKEND", "memory"),
		CacheTTL:     parseDuration(getEnv("CACHE_TTL", "1h"), time.Hour),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		AdminEmails:    getEnv("ADMIN_EMAILS", ""),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),
		AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),

		RateLimitMax:    parseInt(getEnv("RATE_LIMIT_MAX", "60"), 60),
		RateLimitWindow: parseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"), time.Minute),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		SiteURL:     getEnv("SITE_URL", "https://zippicks.com"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// AdminConfigured reports whether any admin credential source is set.
func (c *Config) AdminConfigured() bool {
	return c.AdminToken != "" || c.AdminTokenHash != "" || (c.JWTSecret != "" && c.AdminEmails != "")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
