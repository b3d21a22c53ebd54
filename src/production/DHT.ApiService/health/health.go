package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	config "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Config"
)

// HealthChecker provides health check functionality
type HealthChecker struct {
	db *sql.DB
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

// PingPostgres checks if the PostgreSQL connection is healthy
func (h *HealthChecker) PingPostgres(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return h.db.PingContext(ctx)
}

// CheckDatabaseHealth performs a comprehensive database health check
func (h *HealthChecker) CheckDatabaseHealth(ctx context.Context) error {
	if err := h.PingPostgres(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Check if we can execute a simple query
	var result int
	err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	return nil
}

// DatabaseManager handles schema bootstrap
type DatabaseManager struct {
	db *sql.DB
}

// NewDatabaseManager creates a new database manager
func NewDatabaseManager(db *sql.DB) *DatabaseManager {
	return &DatabaseManager{db: db}
}

// ConnectPostgresWithTimeout creates a PostgreSQL connection with a timeout context
func ConnectPostgresWithTimeout(cfg *config.Config, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// CreateTables creates the required tables if they don't exist
func (dm *DatabaseManager) CreateTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Readings are naive UTC at second precision, hence TIMESTAMP(0)
	// without a time zone.
	createSensorDataTable := `
		CREATE TABLE IF NOT EXISTS sensor_data (
			log_id      BIGSERIAL PRIMARY KEY,
			device_id   VARCHAR(11) NOT NULL,
			mac_address VARCHAR(17) NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			humidity    DOUBLE PRECISION NOT NULL,
			timestamp   TIMESTAMP(0) NOT NULL
		);
	`

	// Create indexes
	createIndexes := `
		CREATE INDEX IF NOT EXISTS idx_sensor_data_device_id ON sensor_data (device_id);
		CREATE INDEX IF NOT EXISTS idx_sensor_data_mac_address ON sensor_data (mac_address);
		CREATE INDEX IF NOT EXISTS idx_sensor_data_timestamp ON sensor_data (timestamp);
		CREATE INDEX IF NOT EXISTS idx_sensor_data_device_ts ON sensor_data (device_id, timestamp);
	`

	queries := []string{
		createSensorDataTable,
		createIndexes,
	}

	for _, query := range queries {
		if _, err := dm.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (dm *DatabaseManager) Close() error {
	if dm.db != nil {
		return dm.db.Close()
	}
	return nil
}
