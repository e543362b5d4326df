package utils

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"rcb-go/models"
)

// PGAwardLedger is the Postgres-backed award ledger. Idempotency rests on
// the unique index over (username, game_id, award_kind, year, month):
// RecordAward inserts with ON CONFLICT DO NOTHING and reports
// ErrAlreadyExists when no row landed.
type PGAwardLedger struct {
	pool *pgxpool.Pool
}

func NewPGAwardLedger(pool *pgxpool.Pool) *PGAwardLedger {
	return &PGAwardLedger{pool: pool}
}

func (l *PGAwardLedger) HasAward(ctx context.Context, username, gameID string, kind models.AwardKind, year, month int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM award_ledger
			WHERE username = $1 AND game_id = $2 AND award_kind = $3 AND year = $4 AND month = $5
		)`

	var exists bool
	err := l.pool.QueryRow(ctx, query, username, gameID, string(kind), year, month).Scan(&exists)
	if err != nil {
		return false, &PersistenceError{Op: "ledger.HasAward", Err: err}
	}
	return exists, nil
}

func (l *PGAwardLedger) RecordAward(ctx context.Context, entry models.AwardLedgerEntry) error {
	query := `
		INSERT INTO award_ledger (username, game_id, award_kind, points, year, month, granted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username, game_id, award_kind, year, month) DO NOTHING`

	tag, err := l.pool.Exec(ctx, query,
		entry.Username,
		entry.GameID,
		string(entry.Kind),
		entry.Points,
		entry.Year,
		entry.Month,
		entry.GrantedAt,
	)
	if err != nil {
		return &PersistenceError{Op: "ledger.RecordAward", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (l *PGAwardLedger) AwardsForUser(ctx context.Context, username string, year int) ([]models.AwardLedgerEntry, error) {
	query := `
		SELECT username, game_id, award_kind, points, year, month, granted_at
		FROM award_ledger
		WHERE username = $1 AND year = $2
		ORDER BY granted_at, game_id`

	rows, err := l.pool.Query(ctx, query, username, year)
	if err != nil {
		return nil, &PersistenceError{Op: "ledger.AwardsForUser", Err: err}
	}
	defer rows.Close()

	var entries []models.AwardLedgerEntry
	for rows.Next() {
		var entry models.AwardLedgerEntry
		var kind string
		err := rows.Scan(&entry.Username, &entry.GameID, &kind, &entry.Points,
			&entry.Year, &entry.Month, &entry.GrantedAt)
		if err != nil {
			return nil, &PersistenceError{Op: "ledger.AwardsForUser", Err: fmt.Errorf("failed to scan ledger entry: %w", err)}
		}
		entry.Kind = models.AwardKind(kind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "ledger.AwardsForUser", Err: err}
	}

	return entries, nil
}

func (l *PGAwardLedger) RemoveAward(ctx context.Context, actor, username, gameID string, kind models.AwardKind, year, month int) (bool, error) {
	query := `
		DELETE FROM award_ledger
		WHERE username = $1 AND game_id = $2 AND award_kind = $3 AND year = $4 AND month = $5`

	tag, err := l.pool.Exec(ctx, query, username, gameID, string(kind), year, month)
	if err != nil {
		return false, &PersistenceError{Op: "ledger.RemoveAward", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	log.Printf("ledger: %s removed %s award for %s on game %s (%d/%d)",
		actor, kind, username, gameID, month, year)
	return true, nil
}

// MonthlyTotals sums ledger points per user for one calendar month. Feeds
// the monthly leaderboard; mastery entries are year-scoped and excluded.
func (l *PGAwardLedger) MonthlyTotals(ctx context.Context, year, month, limit int) ([]LeaderboardRow, error) {
	query := `
		SELECT username, SUM(points) AS total
		FROM award_ledger
		WHERE year = $1 AND month = $2
		GROUP BY username
		ORDER BY total DESC, username
		LIMIT $3`

	rows, err := l.pool.Query(ctx, query, year, month, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "ledger.MonthlyTotals", Err: err}
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.Username, &row.Points); err != nil {
			return nil, &PersistenceError{Op: "ledger.MonthlyTotals", Err: err}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LeaderboardRow is one line of a points leaderboard.
type LeaderboardRow struct {
	Username string
	Points   int
}
