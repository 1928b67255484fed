// Package sqlstore keeps export history in PostgreSQL or SQLite through sqlx
package sqlstore

import (
	"context"
	"fmt"
	"log"
	"time"

	"psycdata/internal/errors"
	"psycdata/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the database and applies migrations. driver is
// "postgres" or "sqlite".
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to open database", err)
	}
	if driver == "sqlite" {
		// a single connection keeps in-memory databases shared
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.DatabaseError(fmt.Sprintf("failed to connect to %s database", driver), err)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to run migrations", err)
	}
	log.Printf("[SQLStore] Connected to %s database (schema %s)", driver, runner.Version())
	return db, nil
}
