package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/prabeshj/tokri/internal/adapters/nats"
	"github.com/prabeshj/tokri/internal/adapters/postgres"
	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/pkg/config"
	"github.com/prabeshj/tokri/internal/pkg/logging"
)

// The realtime processor drains courier position fixes off JetStream and
// persists the latest fix per courier, so dispatch ranking and live maps
// read fresh coordinates even when fixes arrive through channels other
// than the HTTP ingest endpoint.
func main() {
	cfg, err := config.Load("tokri-realtime")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("realtime", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	couriers := postgres.NewCourierRepo(db)

	err = sub.SubscribeCourierFixes(ctx, func(ctx context.Context, fix *domain.CourierFix) error {
		if !fix.Location.Valid() {
			slog.Warn("dropping invalid fix", "courier_id", fix.CourierID)
			return nil // don't redeliver garbage
		}
		// Ignore stale fixes replayed from the stream
		if age := time.Since(fix.Time); age > 10*time.Minute {
			slog.Debug("skipping stale fix", "courier_id", fix.CourierID, "age", age.String())
			return nil
		}
		if err := couriers.UpdateLocation(ctx, fix.CourierID, fix.Location); err != nil {
			slog.Error("persist fix", "courier_id", fix.CourierID, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("realtime fix processor started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down realtime processor", "signal", sig.String())
	cancel()
	// Give in-flight handlers time to finish
	time.Sleep(2 * time.Second)
}
