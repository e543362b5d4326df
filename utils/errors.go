package utils

import (
	"errors"
	"fmt"

	"rcb-go/models"
)

// ErrAlreadyExists signals that a ledger entry for the same key has already
// been recorded. It is the expected idempotency outcome, not a failure: the
// caller skips the award and moves on.
var ErrAlreadyExists = errors.New("award already recorded")

// ConfigError marks a malformed game rule or puzzle configuration. Config
// errors are fatal at startup; awarding against wrong rules is worse than
// not starting.
type ConfigError struct {
	GameID string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.GameID == "" {
		return fmt.Sprintf("config error: %s", e.Reason)
	}
	return fmt.Sprintf("config error for game %s: %s", e.GameID, e.Reason)
}

// FetchError marks an achievement-source failure. Recoverable: the caller
// skips the cycle and never awards from partial data.
type FetchError struct {
	Username string
	GameID   string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %s game %s: %v", e.Username, e.GameID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError wraps a ledger or stats write failure. The ingestion
// queue retries these with backoff.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ProcessingFailedError is surfaced when the ingestion queue exhausts its
// retries for a user's batch. It carries the whole unprocessed batch so an
// operator can replay it; it is logged, never dropped.
type ProcessingFailedError struct {
	BatchID  string
	Username string
	Batches  []GameBatch
	Attempts int
	Err      error
}

func (e *ProcessingFailedError) Error() string {
	return fmt.Sprintf("processing failed for %s after %d attempts (batch %s): %v",
		e.Username, e.Attempts, e.BatchID, e.Err)
}

func (e *ProcessingFailedError) Unwrap() error { return e.Err }

// GameBatch is one game's worth of achievement observations for a user.
type GameBatch struct {
	GameID       string
	Achievements []models.AchievementRecord
}
