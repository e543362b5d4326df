package utils

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// DB is the shared connection pool. Nil when DATABASE_URL is unset; the
	// bot then falls back to the in-memory stores.
	DB            *pgxpool.Pool
	dbInitialized = false
	dbMutex       sync.Mutex
)

// SetupDatabase initializes the database connection pool and ensures the
// schema exists. Returns without error when DATABASE_URL is unset so the bot
// can run in offline mode.
func SetupDatabase() error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if dbInitialized {
		return nil
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil
	}

	ctx := context.Background()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 4
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "rcb-discord-bot",
		"timezone":          "UTC",
		"statement_timeout": "30s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn.Release()

	DB = pool
	dbInitialized = true

	if err := createTables(ctx); err != nil {
		return err
	}

	return nil
}

// CloseDatabase closes the database connection pool.
func CloseDatabase() {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if DB != nil {
		DB.Close()
		DB = nil
		dbInitialized = false
	}
}

// createTables ensures the schema exists. The unique index on award_ledger
// is the correctness backstop for concurrent award recording: even if queue
// serialization is bypassed, exactly one insert wins.
func createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS award_ledger (
			id SERIAL PRIMARY KEY,
			username VARCHAR(100) NOT NULL,
			game_id VARCHAR(50) NOT NULL,
			award_kind VARCHAR(20) NOT NULL,
			points INTEGER NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL DEFAULT 0,
			granted_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(username, game_id, award_kind, year, month)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_award_ledger_user_year ON award_ledger(username, year)`,
		`CREATE INDEX IF NOT EXISTS idx_award_ledger_year_month ON award_ledger(year, month)`,

		`CREATE TABLE IF NOT EXISTS user_yearly_stats (
			username VARCHAR(100) NOT NULL,
			year INTEGER NOT NULL,
			total_points INTEGER NOT NULL DEFAULT 0,
			games_beaten INTEGER NOT NULL DEFAULT 0,
			games_mastered INTEGER NOT NULL DEFAULT 0,
			monthly_participations INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY(username, year)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_yearly_stats_points ON user_yearly_stats(year, total_points DESC)`,

		`CREATE TABLE IF NOT EXISTS registered_users (
			discord_id BIGINT PRIMARY KEY,
			ra_username VARCHAR(100) NOT NULL UNIQUE,
			registered_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS arcade_scores (
			id SERIAL PRIMARY KEY,
			board VARCHAR(100) NOT NULL,
			username VARCHAR(100) NOT NULL,
			score BIGINT NOT NULL,
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(board, username)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_arcade_scores_board ON arcade_scores(board, score DESC)`,
	}

	for _, query := range statements {
		if _, err := DB.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
