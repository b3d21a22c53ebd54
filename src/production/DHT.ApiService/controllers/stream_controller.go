package controllers

import (
	"io"

	"github.com/gin-gonic/gin"
	broadcast "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Broadcast"
	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
)

// StreamController handles the live event stream
type StreamController struct {
	broadcaster *broadcast.Broadcaster
	logger      *logger.Logger
}

// NewStreamController creates a new stream controller
func NewStreamController(broadcaster *broadcast.Broadcaster, logger *logger.Logger) *StreamController {
	return &StreamController{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// RegisterRoutes registers the stream routes with Gin
func (c *StreamController) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/events/stream", c.StreamEvents)
}

// StreamEvents holds the connection open and forwards every reading
// persisted after the subscription was registered. Earlier readings are
// never replayed.
func (c *StreamController) StreamEvents(ctx *gin.Context) {
	sub := c.broadcaster.Subscribe()
	defer c.broadcaster.Unsubscribe(sub)

	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	c.logger.Logger.Debug().Str("subscriber_id", sub.ID()).Msg("Stream subscriber connected")

	ctx.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			ctx.SSEvent("message", ev)
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})

	c.logger.Logger.Debug().Str("subscriber_id", sub.ID()).Msg("Stream subscriber disconnected")
}
