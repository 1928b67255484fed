package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"psycdata/adapters/api"
	"psycdata/adapters/storage"
	"psycdata/internal/config"
	"psycdata/internal/container"

	"github.com/joho/godotenv"
)

// Serves the analysis backend over HTTP so the window host can run with
// BACKEND_URL pointing here.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Backend.Remote() {
		log.Fatalf("BACKEND_URL is set to %s; the backend cannot proxy to another backend", cfg.Backend.URL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(
		container.NewLocalBackend(cfg.Backend.MaxConcurrent),
		storage.NewFileStore(cfg.Export.Dir),
		cfg.Backend.MaxConcurrent,
		cfg.Backend.RequestTimeout,
	)
	if err := server.ListenAndServe(ctx, ":"+cfg.Backend.Port); err != nil {
		log.Fatalf("Backend failed: %v", err)
	}
}
