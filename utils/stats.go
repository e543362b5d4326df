package utils

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rcb-go/models"
)

// PGStatsStore keeps the per-(user, year) aggregates in Postgres. It only
// records what the points engine tells it to; validity decisions live in the
// engine and the ledger.
type PGStatsStore struct {
	pool   *pgxpool.Pool
	ledger AwardLedger
}

func NewPGStatsStore(pool *pgxpool.Pool, ledger AwardLedger) *PGStatsStore {
	return &PGStatsStore{pool: pool, ledger: ledger}
}

func (s *PGStatsStore) Stats(ctx context.Context, username string, year int) (models.UserYearlyStats, error) {
	query := `
		SELECT username, year, total_points, games_beaten, games_mastered, monthly_participations
		FROM user_yearly_stats
		WHERE username = $1 AND year = $2`

	var st models.UserYearlyStats
	err := s.pool.QueryRow(ctx, query, username, year).Scan(
		&st.Username, &st.Year, &st.TotalPoints, &st.GamesBeaten,
		&st.GamesMastered, &st.MonthlyParticipations,
	)
	if err == pgx.ErrNoRows {
		return models.UserYearlyStats{Username: username, Year: year}, nil
	}
	if err != nil {
		return models.UserYearlyStats{}, &PersistenceError{Op: "stats.Stats", Err: err}
	}
	return st, nil
}

func (s *PGStatsStore) ApplyDelta(ctx context.Context, username string, year int, delta models.StatsDelta) error {
	query := `
		INSERT INTO user_yearly_stats (username, year, total_points, games_beaten, games_mastered, monthly_participations)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username, year) DO UPDATE SET
			total_points = user_yearly_stats.total_points + EXCLUDED.total_points,
			games_beaten = user_yearly_stats.games_beaten + EXCLUDED.games_beaten,
			games_mastered = user_yearly_stats.games_mastered + EXCLUDED.games_mastered,
			monthly_participations = user_yearly_stats.monthly_participations + EXCLUDED.monthly_participations`

	_, err := s.pool.Exec(ctx, query, username, year,
		delta.Points, delta.GamesBeaten, delta.GamesMastered, delta.MonthlyParticipations)
	if err != nil {
		return &PersistenceError{Op: "stats.ApplyDelta", Err: err}
	}
	return nil
}

// RebuildFromLedger replays the user's ledger entries for the year and
// overwrites the stored aggregate in one statement. This is the single
// repair path for drifted or corrupted aggregates.
func (s *PGStatsStore) RebuildFromLedger(ctx context.Context, username string, year int) (models.UserYearlyStats, error) {
	entries, err := s.ledger.AwardsForUser(ctx, username, year)
	if err != nil {
		return models.UserYearlyStats{}, err
	}

	rebuilt := aggregateEntries(username, year, entries)

	query := `
		INSERT INTO user_yearly_stats (username, year, total_points, games_beaten, games_mastered, monthly_participations)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username, year) DO UPDATE SET
			total_points = EXCLUDED.total_points,
			games_beaten = EXCLUDED.games_beaten,
			games_mastered = EXCLUDED.games_mastered,
			monthly_participations = EXCLUDED.monthly_participations`

	_, err = s.pool.Exec(ctx, query, rebuilt.Username, rebuilt.Year,
		rebuilt.TotalPoints, rebuilt.GamesBeaten, rebuilt.GamesMastered, rebuilt.MonthlyParticipations)
	if err != nil {
		return models.UserYearlyStats{}, &PersistenceError{Op: "stats.RebuildFromLedger", Err: err}
	}
	return rebuilt, nil
}

// YearlyTotals reads the yearly leaderboard from the aggregates table.
func (s *PGStatsStore) YearlyTotals(ctx context.Context, year, limit int) ([]LeaderboardRow, error) {
	query := `
		SELECT username, total_points
		FROM user_yearly_stats
		WHERE year = $1 AND total_points > 0
		ORDER BY total_points DESC, username
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, year, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "stats.YearlyTotals", Err: err}
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.Username, &row.Points); err != nil {
			return nil, &PersistenceError{Op: "stats.YearlyTotals", Err: err}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
