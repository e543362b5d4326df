package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcb-go/models"
)

func batch(gameID string) GameBatch {
	return GameBatch{
		GameID:       gameID,
		Achievements: []models.AchievementRecord{{AchievementID: 1, GameID: gameID, EarnedAt: 1}},
	}
}

func TestQueueProcessesBatchesInOrder(t *testing.T) {
	var mutex sync.Mutex
	var seen []string

	q := NewIngestionQueue(func(_ context.Context, username, gameID string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		mutex.Lock()
		seen = append(seen, username+":"+gameID)
		mutex.Unlock()
		return nil, nil
	})

	q.Enqueue("Player", []GameBatch{batch("1"), batch("2"), batch("3")})
	q.Wait()

	assert.Equal(t, []string{"player:1", "player:2", "player:3"}, seen)
}

func TestQueueSerializesPerUser(t *testing.T) {
	var inFlight, maxInFlight int32

	q := NewIngestionQueue(func(_ context.Context, _, _ string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			peak := atomic.LoadInt32(&maxInFlight)
			if n <= peak || atomic.CompareAndSwapInt32(&maxInFlight, peak, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil, nil
	})

	for i := 0; i < 10; i++ {
		q.Enqueue("same-user", []GameBatch{batch("1")})
	}
	q.Wait()

	// At most one invocation in flight for a single user.
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestQueueDistinctUsersRunConcurrently(t *testing.T) {
	const users = 4
	started := make(chan string, users)
	release := make(chan struct{})

	q := NewIngestionQueue(func(_ context.Context, username, _ string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		started <- username
		<-release
		return nil, nil
	})

	q.Enqueue("alpha", []GameBatch{batch("1")})
	q.Enqueue("bravo", []GameBatch{batch("1")})
	q.Enqueue("charlie", []GameBatch{batch("1")})
	q.Enqueue("delta", []GameBatch{batch("1")})

	// All four runs start without any of them finishing.
	for i := 0; i < users; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d users started concurrently", i, users)
		}
	}
	close(release)
	q.Wait()
}

func TestQueueCoalescesPendingBatches(t *testing.T) {
	block := make(chan struct{})
	var mutex sync.Mutex
	var processed []string

	q := NewIngestionQueue(func(_ context.Context, _, gameID string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		mutex.Lock()
		processed = append(processed, gameID)
		first := len(processed) == 1
		mutex.Unlock()
		if first {
			<-block
		}
		return nil, nil
	})

	q.Enqueue("player", []GameBatch{batch("1")})

	// These arrive while the first run is blocked and must accumulate.
	q.Enqueue("player", []GameBatch{batch("2")})
	q.Enqueue("player", []GameBatch{batch("3")})
	close(block)
	q.Wait()

	assert.Equal(t, []string{"1", "2", "3"}, processed)
}

func TestQueueRetriesPersistenceErrors(t *testing.T) {
	var attempts int32
	q := NewIngestionQueue(func(_ context.Context, _, _ string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return nil, &PersistenceError{Op: "record award", Err: errors.New("connection reset")}
		}
		return []models.AwardKind{models.AwardParticipation}, nil
	})

	var slept []time.Duration
	q.sleep = func(d time.Duration) { slept = append(slept, d) }
	q.SetFailureHandler(func(err *ProcessingFailedError) {
		t.Errorf("failure handler fired for a batch that eventually succeeded: %v", err)
	})

	q.Enqueue("player", []GameBatch{batch("1")})
	q.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, []time.Duration{1 * time.Second, 5 * time.Second}, slept)
}

func TestQueueExhaustionCarriesRemainingBatches(t *testing.T) {
	var attempts int32
	q := NewIngestionQueue(func(_ context.Context, _, _ string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, &PersistenceError{Op: "record award", Err: errors.New("database is down")}
	})
	q.sleep = func(time.Duration) {}

	var failed *ProcessingFailedError
	q.SetFailureHandler(func(err *ProcessingFailedError) { failed = err })

	q.Enqueue("player", []GameBatch{batch("1"), batch("2"), batch("3")})
	q.Wait()

	require.NotNil(t, failed)
	assert.NotEmpty(t, failed.BatchID)
	assert.Equal(t, "player", failed.Username)
	assert.Equal(t, 4, failed.Attempts)
	// The failing batch and everything after it is preserved for replay.
	require.Len(t, failed.Batches, 3)
	assert.Equal(t, "1", failed.Batches[0].GameID)

	var pe *PersistenceError
	assert.ErrorAs(t, failed.Err, &pe)

	// Initial attempt plus three retries, first batch only.
	assert.Equal(t, int32(4), atomic.LoadInt32(&attempts))
}

func TestQueueDoesNotRetryOtherErrors(t *testing.T) {
	var attempts int32
	q := NewIngestionQueue(func(_ context.Context, _, gameID string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		atomic.AddInt32(&attempts, 1)
		if gameID == "1" {
			return nil, errors.New("malformed achievement payload")
		}
		return nil, nil
	})
	q.sleep = func(d time.Duration) {
		t.Errorf("unexpected retry sleep of %v for a non-persistence error", d)
	}
	q.SetFailureHandler(func(err *ProcessingFailedError) {
		t.Errorf("failure handler fired for a non-retryable error: %v", err)
	})

	q.Enqueue("player", []GameBatch{batch("1"), batch("2")})
	q.Wait()

	// The bad batch is attempted once and skipped; the next batch still runs.
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueueIgnoresEmptyInput(t *testing.T) {
	q := NewIngestionQueue(func(_ context.Context, _, _ string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		t.Error("process called for empty input")
		return nil, nil
	})

	q.Enqueue("", []GameBatch{batch("1")})
	q.Enqueue("player", nil)
	q.Wait()
}
