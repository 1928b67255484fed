package main

import (
	"context"
	"log"
	"os"
	"time"

	"psycdata/adapters/sqlstore"
	"psycdata/internal/config"
	"psycdata/internal/migration"

	"github.com/joho/godotenv"
)

// Creates the export history schema for DATABASE_URL, or for the URL
// given as the only argument.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	raw := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		raw = os.Args[1]
	}
	if raw == "" {
		log.Fatal("Usage: migrate <database_url> (or set DATABASE_URL)")
	}

	driver, dsn, err := config.ParseDatabaseURL(raw)
	if err != nil {
		log.Fatalf("Invalid database URL: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlstore.Open(ctx, driver, dsn)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	log.Printf("Export history schema %s is up to date (%s)", migration.NewRunner().Version(), driver)
}
