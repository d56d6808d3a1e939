package services

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// cleanupTables is the reverse dependency order of models.AllModels
var cleanupTables = []string{
	"property_alerts",
	"property_visits",
	"property_inquiries",
	"saved_properties",
	"contacts",
	"agent_specializations",
	"agents",
	"property_images",
	"properties",
	"property_types",
	"users",
}

// SetupSQLiteTestDB creates an in-memory SQLite database for testing
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}

	// Every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get SQLite connection pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	CleanupTestData(t, db)

	return db
}

// CleanupTestData removes all test data from the database
// Exported for use in handler tests
func CleanupTestData(t *testing.T, db *gorm.DB) {
	for _, table := range cleanupTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Logf("Warning: failed to cleanup %s: %v", table, err)
		}
	}
}

// RequireTestDB sets up a test database and fails the test if it cannot be established.
//
// Usage:
//
//	db := RequireTestDB(t)
//	// No need to check for nil - test will fail if DB setup fails
func RequireTestDB(t *testing.T) *gorm.DB {
	db := SetupSQLiteTestDB(t)
	if db == nil {
		t.Fatal("Test database setup failed - cannot proceed with test")
	}
	return db
}

// SetupMockDB opens GORM over sqlmock with the postgres dialect, for asserting
// the exact statements a service issues
func SetupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	var db *sql.DB
	var mock sqlmock.Sqlmock
	var err error

	db, mock, err = sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}
