package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/prabeshj/tokri/internal/adapters/http"
	natsadapter "github.com/prabeshj/tokri/internal/adapters/nats"
	"github.com/prabeshj/tokri/internal/adapters/nominatim"
	"github.com/prabeshj/tokri/internal/adapters/postgres"
	"github.com/prabeshj/tokri/internal/adapters/staticpos"
	"github.com/prabeshj/tokri/internal/adapters/valkey"
	"github.com/prabeshj/tokri/internal/core/ports"
	"github.com/prabeshj/tokri/internal/core/usecases"
	"github.com/prabeshj/tokri/internal/pkg/config"
	"github.com/prabeshj/tokri/internal/pkg/logging"
	"github.com/prabeshj/tokri/internal/pkg/metrics"
	"github.com/prabeshj/tokri/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("tokri-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Export pool stats periodically
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	// Cache. The interface variable stays nil when valkey is down so the
	// services skip caching instead of calling through a nil client.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
		cache = nil
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Temporal: dispatch is degraded, not down, when unreachable
	temporal, err := temporalclient.Dial(temporalclient.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		slog.Warn("temporal unavailable, dispatch disabled", "error", err)
		temporal = nil
	} else {
		defer temporal.Close()
	}

	// Repos
	storeRepo := postgres.NewStoreRepo(db)
	listingRepo := postgres.NewListingRepo(db)
	zoneRepo := postgres.NewZoneRepo(db)
	courierRepo := postgres.NewCourierRepo(db)

	// Position source, only for pinned kiosk installs
	var posSource ports.LocationSource
	if cfg.Position.Enabled {
		src, err := staticpos.New(cfg.Position.Lat, cfg.Position.Lon)
		if err != nil {
			log.Fatalf("position: %v", err)
		}
		posSource = src
	}

	// Use cases
	var eventPublisher ports.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}
	geocoder := nominatim.NewClient(cfg.Geocoder.BaseURL)
	debounce := time.Duration(cfg.Geocoder.DebounceMS) * time.Millisecond

	searchSvc := usecases.NewSearchService(listingRepo, cacheSvc)
	geocodeSvc := usecases.NewGeocodeService(geocoder, cacheSvc, debounce)
	locationSvc := usecases.NewLocationService(posSource)

	pricingSvc, err := usecases.LoadPricingService(ctx, zoneRepo, eventPublisher)
	if err != nil {
		log.Fatalf("pricing: %v", err)
	}

	deps := &http.Dependencies{
		Search:   searchSvc,
		Geocode:  geocodeSvc,
		Pricing:  pricingSvc,
		Location: locationSvc,
		Stores:   storeRepo,
		Listings: listingRepo,
		Couriers: courierRepo,
		Events:   eventPublisher,
		Temporal: temporal,
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Tokri API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.tokri.app",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
