package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/foodpost/internal/config"
	"github.com/illegalcall/foodpost/internal/notify"
	"github.com/illegalcall/foodpost/internal/worker"
	"github.com/illegalcall/foodpost/pkg/kafka"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if cfg.Kafka.Broker == "" {
		logger.Error("KAFKA_BROKER is required for the worker")
		os.Exit(1)
	}

	// Initialize Kafka consumer
	consumer, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		logger.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	logger.Info("✅ Connected to Kafka")

	var notifier notify.Notifier = notify.LogNotifier{Logger: logger}
	if cfg.Webhook.URL != "" {
		notifier = notify.NewWebhookClient(cfg.Webhook, logger)
	} else {
		logger.Warn("WEBHOOK_URL is not set; post events will only be logged")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create and start worker
	w := worker.NewWorker(cfg, consumer, notifier, logger)
	if err := w.Start(ctx); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
}
