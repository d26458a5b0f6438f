package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// OpenPostgres opens the read-only analytics pool. The engine never writes;
// the pool only serves the fixed report catalog.
func OpenPostgres(dsn string, maxConnections int, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if maxConnections <= 0 {
		maxConnections = 20
	}
	db.SetMaxOpenConns(maxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("database connection established",
		zap.Int("max_connections", maxConnections))

	return db, nil
}

// Version returns the server version string for the health endpoint. An
// error here means the store is unreachable.
func Version(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	if err := db.QueryRowContext(ctx, `SELECT version()`).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query database version: %w", err)
	}
	return version, nil
}
