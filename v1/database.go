package v1

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nurpratapkarki/realEstateWeb/config"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported values of DB_TYPE
const (
	DatabaseTypePostgres = "postgres"
	DatabaseTypeSQLite   = "sqlite"
)

// DatabaseConfig holds GORM database connection configuration
type DatabaseConfig struct {
	Type            string
	Host            string
	Port            string
	Username        string
	Password        string
	Database        string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewDatabaseConfig creates a database configuration from the environment
func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type:            strings.ToLower(config.GetEnvOrDefault("DB_TYPE", DatabaseTypePostgres)),
		Host:            config.GetEnvOrDefault("DB_HOST", "localhost"),
		Port:            config.GetEnvOrDefault("DB_PORT", "5432"),
		Username:        config.GetEnvOrDefault("DB_USERNAME", "postgres"),
		Password:        config.GetEnvOrDefault("DB_PASSWORD", "password"),
		Database:        config.GetEnvOrDefault("DB_NAME", "real_estate"),
		SSLMode:         config.GetEnvOrDefault("DB_SSLMODE", "disable"),
		SQLitePath:      config.GetEnvOrDefault("DB_PATH", "./data/catalog.db"),
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

func (c *DatabaseConfig) dialector() (gorm.Dialector, error) {
	switch c.Type {
	case DatabaseTypePostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
		return postgres.Open(dsn), nil
	case DatabaseTypeSQLite:
		// foreign keys are off by default in SQLite
		return sqlite.Open(c.SQLitePath + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (expected %s or %s)", c.Type, DatabaseTypePostgres, DatabaseTypeSQLite)
	}
}

// ConnectGormDB establishes a GORM connection. Migrations run when
// RUN_MIGRATION=true.
func ConnectGormDB(cfg *DatabaseConfig) (*gorm.DB, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Type == DatabaseTypeSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Connected to database", "type", cfg.Type, "host", cfg.Host, "database", cfg.Database)

	if os.Getenv("RUN_MIGRATION") == "true" {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	} else {
		slog.Info("Database connected (migration skipped)")
	}

	return db, nil
}

// Migrate creates or updates the schema of every catalog model
func Migrate(db *gorm.DB) error {
	slog.Info("Running GORM auto-migration")
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	slog.Info("GORM auto-migration completed successfully")
	return nil
}
