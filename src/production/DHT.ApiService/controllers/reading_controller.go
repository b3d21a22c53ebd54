package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
	interfaces "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Repository/Interfaces"
)

// ReadingController handles stored log requests
type ReadingController struct {
	readingRepo interfaces.ReadingRepository
	logger      *logger.Logger
}

// NewReadingController creates a new reading controller
func NewReadingController(readingRepo interfaces.ReadingRepository, logger *logger.Logger) *ReadingController {
	return &ReadingController{
		readingRepo: readingRepo,
		logger:      logger,
	}
}

// RegisterRoutes registers the log routes with Gin
func (c *ReadingController) RegisterRoutes(router *gin.Engine) {
	logs := router.Group("/api/logs")
	{
		logs.GET("", c.GetLogs)
		logs.GET("/latest", c.GetLatestLogs)
		logs.GET("/device/:device_id", c.GetDeviceLogs)
		logs.GET("/mac/:mac_address", c.GetLogsByMac)
	}
}

func (c *ReadingController) GetLogs(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	total, err := c.readingRepo.CountLogs(ctx)
	if err != nil {
		c.fail(ctx, "Error counting logs", err)
		return
	}

	readings, err := c.readingRepo.ListLogs(ctx, limit, offset)
	if err != nil {
		c.fail(ctx, "Error fetching logs", err)
		return
	}

	// Ceiling division
	totalPages := (total + int64(limit) - 1) / int64(limit)

	ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": totalPages,
		"data":        dhtmodels.Events(readings),
	})
}

func (c *ReadingController) GetLatestLogs(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if limit < 1 {
		limit = 10
	}

	readings, err := c.readingRepo.LatestReadings(ctx, limit)
	if err != nil {
		c.fail(ctx, "Error fetching latest readings", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(readings),
		"data":    dhtmodels.Events(readings),
	})
}

func (c *ReadingController) GetDeviceLogs(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if limit < 1 {
		limit = 50
	}

	readings, err := c.readingRepo.ListByDevice(ctx, deviceID, limit)
	if err != nil {
		c.fail(ctx, "Error fetching device logs", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"device_id": deviceID,
		"count":     len(readings),
		"data":      dhtmodels.Events(readings),
	})
}

func (c *ReadingController) GetLogsByMac(ctx *gin.Context) {
	macAddress := ctx.Param("mac_address")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if limit < 1 {
		limit = 50
	}

	readings, err := c.readingRepo.ListByMac(ctx, macAddress, limit)
	if err != nil {
		c.fail(ctx, "Error fetching logs by MAC", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"mac_address": macAddress,
		"count":       len(readings),
		"data":        dhtmodels.Events(readings),
	})
}

// fail reports a query failure the way the dashboard expects: a 200 with an
// explicit success flag, never a transport-level error.
func (c *ReadingController) fail(ctx *gin.Context, msg string, err error) {
	c.logger.ErrorWithError(err, msg)
	ctx.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
}
