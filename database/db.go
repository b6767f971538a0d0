package database

import (
	"database/sql"
	"fmt"
	"time"

	"shop-api/config"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func InitDB(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("Database connection established")
	return db, nil
}

// createSchema bootstraps the tables on startup. The counters table holds
// one row per sequence name; product_id and order_id are issued from it,
// never from the tables themselves.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		username VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		status BOOLEAN NOT NULL DEFAULT TRUE,
		created_by INTEGER,
		updated_by INTEGER,
		deleted_by INTEGER,
		deleted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS counters (
		name VARCHAR(64) PRIMARY KEY,
		seq BIGINT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS products (
		product_id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
		description TEXT NOT NULL DEFAULT '',
		status BOOLEAN NOT NULL DEFAULT TRUE,
		created_by INTEGER,
		updated_by INTEGER,
		deleted_by INTEGER,
		deleted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS orders (
		order_id BIGINT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		total_amount DOUBLE PRECISION NOT NULL CHECK (total_amount >= 0),
		status BOOLEAN NOT NULL DEFAULT TRUE,
		created_by INTEGER,
		updated_by INTEGER,
		deleted_by INTEGER,
		deleted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS order_items (
		order_id BIGINT NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		PRIMARY KEY (order_id, position)
	);
	`

	_, err := db.Exec(schema)
	return err
}
