package utils

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rcb-go/models"
)

// ArcadeScore is one row of an arcade high-score board.
type ArcadeScore struct {
	Board       string
	Username    string
	Score       int64
	SubmittedAt time.Time
}

// ArcadeStore keeps the community arcade high-score boards. One score per
// user per board; a resubmission only sticks when it beats the old score.
type ArcadeStore struct {
	pool *pgxpool.Pool
}

func NewArcadeStore(pool *pgxpool.Pool) *ArcadeStore {
	return &ArcadeStore{pool: pool}
}

// SubmitScore upserts a user's score on a board. Returns true when the
// submission improved (or created) the entry.
func (s *ArcadeStore) SubmitScore(ctx context.Context, board, username string, score int64) (bool, error) {
	query := `
		INSERT INTO arcade_scores (board, username, score, submitted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (board, username) DO UPDATE
			SET score = EXCLUDED.score, submitted_at = EXCLUDED.submitted_at
			WHERE arcade_scores.score < EXCLUDED.score`

	tag, err := s.pool.Exec(ctx, query, board, models.NormalizeUsername(username), score, time.Now())
	if err != nil {
		return false, &PersistenceError{Op: "arcade.SubmitScore", Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

// TopScores lists a board's best scores, highest first.
func (s *ArcadeStore) TopScores(ctx context.Context, board string, limit int) ([]ArcadeScore, error) {
	query := `
		SELECT board, username, score, submitted_at
		FROM arcade_scores
		WHERE board = $1
		ORDER BY score DESC, submitted_at
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, board, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "arcade.TopScores", Err: err}
	}
	defer rows.Close()

	var scores []ArcadeScore
	for rows.Next() {
		var sc ArcadeScore
		if err := rows.Scan(&sc.Board, &sc.Username, &sc.Score, &sc.SubmittedAt); err != nil {
			return nil, &PersistenceError{Op: "arcade.TopScores", Err: err}
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// Boards lists the board names that have at least one score.
func (s *ArcadeStore) Boards(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT board FROM arcade_scores ORDER BY board`)
	if err != nil {
		return nil, &PersistenceError{Op: "arcade.Boards", Err: err}
	}
	defer rows.Close()

	var boards []string
	for rows.Next() {
		var board string
		if err := rows.Scan(&board); err != nil {
			return nil, &PersistenceError{Op: "arcade.Boards", Err: err}
		}
		boards = append(boards, board)
	}
	return boards, rows.Err()
}

// RemoveScore deletes a user's entry from a board. Admin correction path;
// logged by the caller with the actor.
func (s *ArcadeStore) RemoveScore(ctx context.Context, board, username string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM arcade_scores WHERE board = $1 AND username = $2`,
		board, models.NormalizeUsername(username))
	if err != nil {
		return false, &PersistenceError{Op: "arcade.RemoveScore", Err: err}
	}
	return tag.RowsAffected() > 0, nil
}
