package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	downsample "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Downsample"
	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
)

// ChartController handles downsampled chart series requests
type ChartController struct {
	engine *downsample.Engine
	logger *logger.Logger
}

// NewChartController creates a new chart controller
func NewChartController(engine *downsample.Engine, logger *logger.Logger) *ChartController {
	return &ChartController{
		engine: engine,
		logger: logger,
	}
}

// RegisterRoutes registers the chart routes with Gin
func (c *ChartController) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/chart/:device_id", c.GetChart)
}

func (c *ChartController) GetChart(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")
	rng := downsample.ParseRange(ctx.DefaultQuery("range", downsample.DefaultToken))

	series, err := c.engine.Series(ctx, deviceID, rng)
	if err != nil {
		if errors.Is(err, downsample.ErrNoData) {
			ctx.JSON(http.StatusOK, gin.H{
				"success":   false,
				"device_id": deviceID,
				"range":     rng.Token,
				"error":     fmt.Sprintf("no readings recorded for device %s", deviceID),
			})
			return
		}
		c.fail(ctx, "Error building chart series", err)
		return
	}

	// History points carry epoch seconds for plotting plus the formatted
	// datetime for tooltips.
	history := make([]gin.H, 0, len(series.History))
	for _, r := range series.History {
		ts := r.Timestamp.UTC()
		history = append(history, gin.H{
			"temperature": r.Temperature,
			"humidity":    r.Humidity,
			"timestamp":   ts.Unix(),
			"datetime":    ts.Format(dhtmodels.DatetimeLayout),
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":           true,
		"device_id":         deviceID,
		"range":             rng.Token,
		"range_minutes":     rng.Minutes,
		"window_start":      series.WindowStart.Format(dhtmodels.DatetimeLayout),
		"window_end":        series.WindowEnd.Format(dhtmodels.DatetimeLayout),
		"total_records":     series.TotalRecords,
		"sampling_interval": series.Interval,
		"sampled_points":    len(series.History),
		"current": gin.H{
			"temperature": series.Current.Temperature,
			"humidity":    series.Current.Humidity,
			"timestamp":   series.Current.Timestamp.UTC().Format(dhtmodels.DatetimeLayout),
		},
		"history": history,
	})
}

func (c *ChartController) fail(ctx *gin.Context, msg string, err error) {
	c.logger.ErrorWithError(err, msg)
	ctx.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
}
