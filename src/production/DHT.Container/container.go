package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/whyuhurtz/DHT-Logger/src/production/DHT.ApiService/health"
	broadcast "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Broadcast"
	config "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Config"
	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
)

// Container manages dependencies and their lifecycle
type Container struct {
	config *config.Config
	logger *logger.Logger
	db     *sql.DB

	// Live fan-out
	broadcaster *broadcast.Broadcaster

	// Health components
	healthChecker   *health.HealthChecker
	databaseManager *health.DatabaseManager

	// Mutex for thread-safe access
	mu sync.RWMutex

	// Cleanup functions
	cleanupFuncs []func() error
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	log := logger.NewLogger(&cfg.Logging)

	container := &Container{
		config: cfg,
		logger: log,
	}

	// Register cleanup functions
	container.registerCleanup()

	return container, nil
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// GetDatabase returns the database connection
func (c *Container) GetDatabase() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		db, err := health.ConnectPostgresWithTimeout(c.config, 20*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db
	}

	return c.db, nil
}

// GetBroadcaster returns the live event broadcaster
func (c *Container) GetBroadcaster() *broadcast.Broadcaster {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broadcaster == nil {
		c.broadcaster = broadcast.New(c.config.Broadcast.BufferSize, c.logger.WithComponent("broadcast"))
		c.cleanupFuncs = append(c.cleanupFuncs, func() error {
			c.broadcaster.Close()
			return nil
		})
	}

	return c.broadcaster
}

// GetHealthChecker returns the health checker
func (c *Container) GetHealthChecker() (*health.HealthChecker, error) {
	c.mu.Lock()
	if c.healthChecker != nil {
		c.mu.Unlock()
		return c.healthChecker, nil
	}
	c.mu.Unlock()

	// Get database without holding the lock to avoid deadlock
	db, err := c.GetDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for health checker: %w", err)
	}

	// Now acquire lock again to set the health checker
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.healthChecker == nil {
		c.healthChecker = health.NewHealthChecker(db)
	}

	return c.healthChecker, nil
}

// GetDatabaseManager returns the database manager
func (c *Container) GetDatabaseManager() (*health.DatabaseManager, error) {
	c.mu.Lock()
	if c.databaseManager != nil {
		c.mu.Unlock()
		return c.databaseManager, nil
	}
	c.mu.Unlock()

	// Get database without holding the lock to avoid deadlock
	db, err := c.GetDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for database manager: %w", err)
	}

	// Now acquire lock again to set the database manager
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.databaseManager == nil {
		c.databaseManager = health.NewDatabaseManager(db)
	}

	return c.databaseManager, nil
}

// InitializeDatabase initializes the database and creates tables
func (c *Container) InitializeDatabase(ctx context.Context) error {
	dbManager, err := c.GetDatabaseManager()
	if err != nil {
		return fmt.Errorf("failed to get database manager: %w", err)
	}

	if err := dbManager.CreateTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	c.logger.Info("Database initialized successfully")
	return nil
}

// Shutdown gracefully shuts down the container and all its dependencies
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	// Execute cleanup functions in reverse order
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}

	// Close database connection
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.ErrorWithError(err, "Error closing database connection")
		}
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// registerCleanup registers cleanup functions
func (c *Container) registerCleanup() {
	c.cleanupFuncs = append(c.cleanupFuncs, func() error {
		if c.db != nil {
			return c.db.Close()
		}
		return nil
	})
}

// AddCleanupFunc adds a cleanup function
func (c *Container) AddCleanupFunc(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}
