package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/zippicks/critic-backend/internal/config"
	"github.com/zippicks/critic-backend/internal/models"
	"github.com/zippicks/critic-backend/internal/tables"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL, or to SQLite when cfg.DBDriver is "sqlite"
// (DBName is then the database file path).
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBName)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// One writer keeps transactions from tripping over "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	slog.Info("database connected", "driver", driverName(cfg))
	return db, nil
}

// OpenSQLite opens a SQLite file with quiet query logging.
func OpenSQLite(path string) (*gorm.DB, error) {
	return Open(&config.Config{DBDriver: "sqlite", DBName: path})
}

// MigrateShared creates the log and transient tables.
func MigrateShared(db *gorm.DB, reg *tables.Registry) error {
	return MigrateModels(db, reg, map[string]interface{}{
		tables.Logs:       &models.LogEntry{},
		tables.Transients: &models.Transient{},
	})
}

// MigrateModels runs AutoMigrate for each logical table under its registry name.
func MigrateModels(db *gorm.DB, reg *tables.Registry, modelsByTable map[string]interface{}) error {
	for logical, model := range modelsByTable {
		name, err := reg.Name(logical)
		if err != nil {
			return err
		}
		if err := db.Table(name).AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func driverName(cfg *config.Config) string {
	if cfg.DBDriver == "sqlite" {
		return "sqlite"
	}
	return "postgres"
}
