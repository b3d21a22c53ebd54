package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/whyuhurtz/DHT-Logger/src/production/DHT.ApiService/controllers"
	container "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Container"
	downsample "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Downsample"
	dhtingestor "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Ingestor"
	implementation "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Repository/Implementation"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting DHT Logger service")

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctr.InitializeDatabase(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize database")
	}

	// Get database connection
	db, err := ctr.GetDatabase()
	if err != nil {
		logger.FatalWithError(err, "Failed to get database connection")
	}

	// Create repositories
	readingRepo := implementation.NewPostgresReadingRepository(db)

	// Get configuration
	config := ctr.GetConfig()

	// Live fan-out and chart engine
	broadcaster := ctr.GetBroadcaster()
	engine := downsample.NewEngine(readingRepo, logger.WithComponent("downsample"))

	// Start the MQTT ingestor; readings flow broker -> pipeline ->
	// database -> broadcaster from here on.
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	ingestor := dhtingestor.New(config, readingRepo, broadcaster, logger.WithComponent("ingestor"))
	if err := ingestor.Start(runCtx); err != nil {
		logger.FatalWithError(err, "Failed to start MQTT ingestor")
	}

	healthChecker, err := ctr.GetHealthChecker()
	if err != nil {
		logger.FatalWithError(err, "Failed to get health checker")
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// Create controllers and register routes
	apiLogger := logger.WithComponent("api")
	readingController := controllers.NewReadingController(readingRepo, apiLogger)
	statsController := controllers.NewStatsController(readingRepo, apiLogger)
	chartController := controllers.NewChartController(engine, apiLogger)
	streamController := controllers.NewStreamController(broadcaster, apiLogger)
	healthController := controllers.NewHealthController(healthChecker, ingestor, broadcaster, config.Version, apiLogger)

	// Register all routes
	readingController.RegisterRoutes(router)
	statsController.RegisterRoutes(router)
	chartController.RegisterRoutes(router)
	streamController.RegisterRoutes(router)
	healthController.RegisterRoutes(router)

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Endpoint not found"})
	})

	// Get port from configuration
	port := config.Server.Port

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("DHT Logger running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	// Stop ingesting first so no new readings arrive, then close the
	// broadcaster so open streams end and the server can drain.
	runCancel()
	ingestor.Stop()
	broadcaster.Close()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
