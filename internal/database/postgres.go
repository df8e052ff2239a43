package database

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
// Repositories depend on this so they work inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPostgresPool creates and returns a new PostgreSQL connection pool.
// It retries a few times in case the database is not ready yet, which is
// common in containerized environments.
func NewPostgresPool(databaseURL string) *pgxpool.Pool {
	if databaseURL == "" {
		log.Fatal("❌ DATABASE_URL environment variable is not set")
	}

	var pool *pgxpool.Pool
	var err error

	maxRetries := 5
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(context.Background(), databaseURL)
		if err == nil {
			if connErr := pool.Ping(context.Background()); connErr == nil {
				log.Println("✅ Successfully connected to PostgreSQL database")
				return pool
			} else {
				log.Printf("... failed to ping database: %v", connErr)
				pool.Close()
			}
		}

		log.Printf("... could not connect to database (attempt %d/%d), retrying in %v...", i+1, maxRetries, retryDelay)
		time.Sleep(retryDelay)
	}

	log.Fatalf("❌ Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err)
	return nil
}
