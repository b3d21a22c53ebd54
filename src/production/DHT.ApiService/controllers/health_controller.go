package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whyuhurtz/DHT-Logger/src/production/DHT.ApiService/health"
	broadcast "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Broadcast"
	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
)

// BrokerStatus reports whether the broker connection is currently up.
type BrokerStatus interface {
	IsConnected() bool
}

// HealthController handles health check requests
type HealthController struct {
	healthChecker *health.HealthChecker
	broker        BrokerStatus
	broadcaster   *broadcast.Broadcaster
	version       string
	logger        *logger.Logger
}

// NewHealthController creates a new health controller
func NewHealthController(healthChecker *health.HealthChecker, broker BrokerStatus, broadcaster *broadcast.Broadcaster, version string, logger *logger.Logger) *HealthController {
	return &HealthController{
		healthChecker: healthChecker,
		broker:        broker,
		broadcaster:   broadcaster,
		version:       version,
		logger:        logger,
	}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.GetHealth)
}

func (c *HealthController) GetHealth(ctx *gin.Context) {
	database := "connected"
	if err := c.healthChecker.PingPostgres(ctx); err != nil {
		c.logger.ErrorWithError(err, "Database health check failed")
		database = "disconnected"
	}

	mqtt := "connected"
	if !c.broker.IsConnected() {
		mqtt = "disconnected"
	}

	status := "ok"
	if database != "connected" || mqtt != "connected" {
		status = "degraded"
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":           status,
		"version":          c.version,
		"database":         database,
		"mqtt":             mqtt,
		"live_subscribers": c.broadcaster.Count(),
		"dropped_events":   c.broadcaster.Dropped(),
	})
}
