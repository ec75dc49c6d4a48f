package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/foodpost/internal/api"
	"github.com/illegalcall/foodpost/internal/config"
	"github.com/illegalcall/foodpost/internal/events"
	"github.com/illegalcall/foodpost/internal/generation"
	"github.com/illegalcall/foodpost/internal/imagegen"
	"github.com/illegalcall/foodpost/internal/metrics"
	"github.com/illegalcall/foodpost/internal/pkg/supabase"
	"github.com/illegalcall/foodpost/internal/storage"
	"github.com/illegalcall/foodpost/internal/store"
	"github.com/illegalcall/foodpost/pkg/database"
	"github.com/illegalcall/foodpost/pkg/kafka"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// Initialize database clients
	db, err := database.NewClients(cfg.Database, cfg.Redis)
	if err != nil {
		logger.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.CreateTables(); err != nil {
		logger.Error("Failed to prepare schema", "error", err)
		os.Exit(1)
	}
	logger.Info("✅ Connected to databases")

	// Initialize Kafka producer; without a broker post events are dropped
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Broker != "" {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			logger.Error("Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		kp := events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		logger.Info("✅ Connected to Kafka")
	}

	logos, err := newLogoStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize logo storage", "error", err)
		os.Exit(1)
	}

	var authenticator api.Authenticator
	auth, err := supabase.NewAuth(cfg.Supabase.URL, cfg.Supabase.AnonKey, logger)
	switch {
	case errors.Is(err, supabase.ErrNotConfigured):
		logger.Warn("Supabase auth is not configured; sign-in is disabled")
	case err != nil:
		logger.Error("Failed to initialize auth client", "error", err)
		os.Exit(1)
	default:
		if err := auth.Ping(); err != nil {
			logger.Warn("Supabase auth is not reachable yet", "error", err)
		}
		authenticator = auth
	}

	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; image generation will fail")
	}

	server := api.NewServer(cfg, api.Deps{
		Profiles:  store.NewProfileStore(db.DB, logger),
		Posts:     store.NewPostStore(db.DB, logger),
		Logos:     logos,
		Images:    imagegen.NewGateway(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, logger),
		Auth:      authenticator,
		Tracker:   generation.NewRedisTracker(db.Redis, cfg.Redis.GenerationTTL),
		Publisher: publisher,
		Metrics:   metrics.New(),
		Logger:    logger,
	})

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("Server started", "port", cfg.Server.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

func newLogoStore(cfg *config.Config) (storage.LogoStore, error) {
	if cfg.Storage.Backend == "local" {
		return storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	}
	return storage.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.ServiceKey, cfg.Supabase.LogoBucket), nil
}
