package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/prabeshj/tokri/internal/adapters/nats"
	"github.com/prabeshj/tokri/internal/adapters/postgres"
	"github.com/prabeshj/tokri/internal/pkg/config"
	"github.com/prabeshj/tokri/internal/pkg/logging"
	"github.com/prabeshj/tokri/internal/workflows"
)

func main() {
	cfg, err := config.Load("tokri-dispatcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("dispatcher", logLevel, "json")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	notifyConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats notify conn: %v", err)
	}
	defer notifyConn.Close()

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.DispatchWorkflow)
	w.RegisterActivity(&workflows.DispatchActivities{
		Couriers:  postgres.NewCourierRepo(db),
		Notifier:  natsadapter.NewNotifier(notifyConn),
		Publisher: publisher,
	})

	slog.Info("dispatch worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
