package utils

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"rcb-go/models"
)

// ProcessFunc is the engine entry point the queue drives. It matches
// (*PointsEngine).ProcessAchievements.
type ProcessFunc func(ctx context.Context, username, gameID string, achievements []models.AchievementRecord, now time.Time) ([]models.AwardKind, error)

// retryDelays is the backoff schedule for persistence failures: the initial
// attempt plus one retry per delay.
var retryDelays = []time.Duration{1 * time.Second, 5 * time.Second, 15 * time.Second}

// IngestionQueue serializes award processing per username: at most one
// engine invocation is in flight for a user at a time, and batches enqueued
// meanwhile accumulate and run when the current one finishes. Distinct users
// process fully concurrently. The ledger's uniqueness constraint remains the
// correctness backstop; the queue keeps concurrent ingestions from racing in
// the first place.
type IngestionQueue struct {
	process   ProcessFunc
	now       func() time.Time
	sleep     func(time.Duration)
	onFailure func(*ProcessingFailedError)

	mutex   sync.Mutex
	busy    map[string]bool
	pending map[string][]GameBatch
	wg      sync.WaitGroup
}

func NewIngestionQueue(process ProcessFunc) *IngestionQueue {
	q := &IngestionQueue{
		process: process,
		now:     time.Now,
		sleep:   time.Sleep,
		busy:    make(map[string]bool),
		pending: make(map[string][]GameBatch),
	}
	q.onFailure = func(err *ProcessingFailedError) {
		log.Printf("queue: %v", err)
	}
	return q
}

// SetFailureHandler replaces the default log-only handler for exhausted
// batches. The handler receives the full unprocessed batch for replay.
func (q *IngestionQueue) SetFailureHandler(fn func(*ProcessingFailedError)) {
	if fn != nil {
		q.onFailure = fn
	}
}

// Enqueue submits a user's achievement batches for processing. If the user
// already has a run in flight the batches are appended to their pending set
// instead of starting a concurrent run.
func (q *IngestionQueue) Enqueue(username string, batches []GameBatch) {
	username = models.NormalizeUsername(username)
	if username == "" || len(batches) == 0 {
		return
	}

	q.mutex.Lock()
	if q.busy[username] {
		q.pending[username] = append(q.pending[username], batches...)
		q.mutex.Unlock()
		return
	}
	q.busy[username] = true
	q.mutex.Unlock()

	q.wg.Add(1)
	go q.run(username, batches)
}

// Wait blocks until every in-flight run has finished. Used at shutdown and
// in tests.
func (q *IngestionQueue) Wait() {
	q.wg.Wait()
}

func (q *IngestionQueue) run(username string, batches []GameBatch) {
	defer q.wg.Done()

	for {
		q.processWithRetry(username, batches)

		q.mutex.Lock()
		next := q.pending[username]
		if len(next) == 0 {
			q.busy[username] = false
			q.mutex.Unlock()
			return
		}
		delete(q.pending, username)
		q.mutex.Unlock()
		batches = next
	}
}

// processWithRetry walks the batches in order. Persistence failures retry on
// the backoff schedule; exhaustion hands the current and remaining batches
// to the failure handler rather than dropping them. Non-persistence errors
// are programmer or config errors and are logged without retry.
func (q *IngestionQueue) processWithRetry(username string, batches []GameBatch) {
	ctx := context.Background()

	for i, batch := range batches {
		var lastErr error
		attempts := 0

		for attempt := 0; attempt <= len(retryDelays); attempt++ {
			if attempt > 0 {
				q.sleep(retryDelays[attempt-1])
			}
			attempts++

			_, err := q.process(ctx, username, batch.GameID, batch.Achievements, q.now())
			if err == nil {
				lastErr = nil
				break
			}

			var pe *PersistenceError
			if !errors.As(err, &pe) {
				log.Printf("queue: non-retryable error processing game %s for %s: %v", batch.GameID, username, err)
				lastErr = nil
				break
			}
			lastErr = err
		}

		if lastErr != nil {
			q.onFailure(&ProcessingFailedError{
				BatchID:  uuid.NewString(),
				Username: username,
				Batches:  batches[i:],
				Attempts: attempts,
				Err:      lastErr,
			})
			return
		}
	}
}
