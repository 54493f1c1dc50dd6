package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"groundwater-platform/internal/config"
	"groundwater-platform/internal/dataset"
	"groundwater-platform/internal/events"
	"groundwater-platform/internal/geo"
	"groundwater-platform/internal/handlers"
	"groundwater-platform/internal/services"
	"groundwater-platform/pkg/cache"
	"groundwater-platform/pkg/logging"
	"groundwater-platform/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("groundwater-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting groundwater platform API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
	})

	metricsCollector := metrics.NewCollector("groundwater_platform")

	// Load the report CSV into the in-memory dataset. A missing file is a
	// blocking startup error: the API has nothing to serve without it.
	store := dataset.New()
	csvPath, err := store.LoadCSVFile(cfg.Data.CSVCandidates()...)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load report CSV", logging.Fields{
			"candidates": cfg.Data.CSVCandidates(),
		}, err)
	}
	metricsCollector.UpdateDatasetSize(store.Len(), store.Defects())

	logger.Info(ctx, "[DATASET_LOADED] Report CSV loaded", logging.Fields{
		"path":           csvPath,
		"records":        store.Len(),
		"states":         len(store.States()),
		"defective_rows": store.Defects(),
	})

	// The boundary file is optional; without it /api/geojson reports 404 and
	// the rest of the API works normally.
	var geoData *geo.FeatureCollection
	if geoData, err = geo.LoadFile(cfg.Data.GeoJSONPath); err != nil {
		logger.Warn(ctx, "[GEOJSON_MISSING] Boundary file not loaded", logging.Fields{
			"path": cfg.Data.GeoJSONPath,
		})
		geoData = nil
	}

	aggCache := cache.New()
	queryService := services.NewQueryService(store, aggCache, cfg.Cache.StateTTL, cfg.Cache.OverviewTTL, logger, metricsCollector)
	chatService := services.NewChatService(queryService, logger, metricsCollector)

	uploadService, err := services.NewUploadService(cfg.Data.UploadDir, store, queryService, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to prepare upload storage", logging.Fields{
			"dir": cfg.Data.UploadDir,
		}, err)
	}

	bus := events.NewBus()
	apiHandler := handlers.NewAPIHandler(queryService, chatService, uploadService, geoData, bus, logger, metricsCollector)

	router := mux.NewRouter()
	router.Use(handlers.RequestIDMiddleware)
	apiHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
