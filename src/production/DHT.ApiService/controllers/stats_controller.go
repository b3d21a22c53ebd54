package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
	interfaces "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Repository/Interfaces"
)

// StatsController handles aggregate statistics requests
type StatsController struct {
	readingRepo interfaces.ReadingRepository
	logger      *logger.Logger
}

// NewStatsController creates a new stats controller
func NewStatsController(readingRepo interfaces.ReadingRepository, logger *logger.Logger) *StatsController {
	return &StatsController{
		readingRepo: readingRepo,
		logger:      logger,
	}
}

// RegisterRoutes registers the stats routes with Gin
func (c *StatsController) RegisterRoutes(router *gin.Engine) {
	stats := router.Group("/api/stats")
	{
		stats.GET("/device/:device_id", c.GetDeviceStats)
		stats.GET("/overview", c.GetOverview)
	}
}

func (c *StatsController) GetDeviceStats(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	stats, err := c.readingRepo.DeviceStats(ctx, deviceID)
	if err != nil {
		c.fail(ctx, "Error fetching device stats", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"device_id": deviceID,
		"stats":     stats,
	})
}

func (c *StatsController) GetOverview(ctx *gin.Context) {
	stats, err := c.readingRepo.OverviewStats(ctx)
	if err != nil {
		c.fail(ctx, "Error fetching overview stats", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

func (c *StatsController) fail(ctx *gin.Context, msg string, err error) {
	c.logger.ErrorWithError(err, msg)
	ctx.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
}
