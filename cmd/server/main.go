// PhishLens - Dashboard Server Entry Point
//
// Serves the phishing analysis dashboard API in front of the prediction
// backend.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phishlens/internal/config"
	"github.com/phishlens/internal/di"
	"github.com/phishlens/internal/server"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("PHISHLENS_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	container, err := di.BuildContainer(cfg)
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = container.Invoke(func(srv *http.Server, logger *zap.Logger) error {
		defer logger.Sync()

		logger.Info("starting PhishLens dashboard",
			zap.String("port", cfg.Server.Port),
			zap.String("backend_url", cfg.Backend.BaseURL),
			zap.Bool("mock_mode", cfg.Backend.MockMode),
			zap.String("default_mode", string(cfg.Dashboard.DefaultMode)),
		)

		return server.Run(ctx, srv, logger)
	})
	if err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
