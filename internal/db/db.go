package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitDB creates the PostgreSQL connection pool and bootstraps the schema.
func InitDB(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to bootstrap schema: %w", err)
	}

	log.Println("Connected to PostgreSQL")
	return pool, nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			steam_id    TEXT PRIMARY KEY,
			personaname TEXT NOT NULL,
			avatar      TEXT NOT NULL DEFAULT '',
			profileurl  TEXT NOT NULL DEFAULT '',
			last_seen   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		// room_id is NULL for the global room.
		`CREATE TABLE IF NOT EXISTS messages (
			id           BIGSERIAL PRIMARY KEY,
			room_id      TEXT,
			text         TEXT NOT NULL,
			steam_name   TEXT NOT NULL,
			steam_avatar TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room_time
			ON messages (room_id, created_at, id)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
