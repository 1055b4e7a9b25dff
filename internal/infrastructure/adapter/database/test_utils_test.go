package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	logadapter "github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/logger"
	timeprovider "github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/time"
)

// TestDBManager provides utilities for testing with a database
type TestDBManager struct {
	Manager      *Manager
	Config       *Config
	Logger       coreport.Logger
	TimeProvider coreport.TimeProvider
}

// NewTestDBManager creates a test database manager, skipping the test when no database is configured
func NewTestDBManager(t *testing.T) *TestDBManager {
	t.Helper()

	host, ok := os.LookupEnv("CP_TEST_DB_HOST")
	if !ok || host == "" {
		t.Skip("CP_TEST_DB_HOST not set, skipping postgres integration test")
	}

	timeProvider := timeprovider.NewRealTimeProvider()
	logger := logadapter.NewNoopLogger()

	config := &Config{
		Driver:          "postgres",
		Host:            host,
		Port:            getEnvIntOrDefault("CP_TEST_DB_PORT", 5432),
		Username:        getEnvOrDefault("CP_TEST_DB_USERNAME", "postgres"),
		Password:        getEnvOrDefault("CP_TEST_DB_PASSWORD", "postgres"),
		Database:        getEnvOrDefault("CP_TEST_DB_DATABASE", "crowdfunding_payments_test"),
		SSLMode:         getEnvOrDefault("CP_TEST_DB_SSL_MODE", "disable"),
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    5 * time.Second,
		LogLevel:        "silent",
		RetryAttempts:   1,
		RetryDelay:      time.Second,
	}

	manager := NewManager(config, logger, timeProvider)
	if _, err := manager.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	m := &TestDBManager{
		Manager:      manager,
		Config:       config,
		Logger:       logger,
		TimeProvider: timeProvider,
	}
	t.Cleanup(func() { m.Close(t) })

	m.SetupTestDB(t)
	return m
}

// Close closes the test database connection
func (m *TestDBManager) Close(t *testing.T) {
	t.Helper()

	if err := m.Manager.Close(); err != nil {
		t.Logf("Warning: Failed to close test database connection: %v", err)
	}
}

// SetupTestDB recreates the schema through the regular migrations and seeds the demo project
func (m *TestDBManager) SetupTestDB(t *testing.T) {
	t.Helper()

	if err := dropAllTables(m.Manager.DB()); err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}

	if err := m.Manager.RunMigrations(context.Background(), true); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
}

// dropAllTables drops all tables in the test database
func dropAllTables(db *gorm.DB) error {
	return db.Exec(`
		DO $$ DECLARE
			r RECORD;
		BEGIN
			FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = current_schema()) LOOP
				EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
			END LOOP;
		END $$;
	`).Error
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
