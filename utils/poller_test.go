package utils

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcb-go/models"
)

// fakeFetcher records fetch calls and serves canned results per game.
type fakeFetcher struct {
	mutex   sync.Mutex
	calls   []string
	fetched chan struct{}
	fail    map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{fetched: make(chan struct{}, 16), fail: make(map[string]bool)}
}

func (f *fakeFetcher) FetchAchievements(_ context.Context, username, gameID string) ([]models.AchievementRecord, error) {
	f.mutex.Lock()
	f.calls = append(f.calls, username+":"+gameID)
	failing := f.fail[gameID]
	f.mutex.Unlock()
	f.fetched <- struct{}{}

	if failing {
		return nil, &FetchError{Username: username, GameID: gameID, Err: fmt.Errorf("api unavailable")}
	}
	return []models.AchievementRecord{{AchievementID: 1, GameID: gameID, EarnedAt: 1700000000}}, nil
}

func TestPollerFirstCycleRunsImmediately(t *testing.T) {
	fetcher := newFakeFetcher()
	users := NewMemoryUserDirectory()
	require.NoError(t, users.Register(context.Background(), 1, "player"))

	queue := NewIngestionQueue(func(_ context.Context, _, _ string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		return nil, nil
	})

	// An hour-long interval: only an immediate first cycle can fetch before
	// the test times out.
	poller := NewPoller(fetcher, newTestCatalog(zeldaRule()), users, queue, time.Hour)
	poller.Start()
	defer poller.Stop()

	select {
	case <-fetcher.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch within 2s of Start; first cycle did not run immediately")
	}
	queue.Wait()
}

func TestPollOnceSkipsFailedFetches(t *testing.T) {
	rule2 := zeldaRule()
	rule2.GameID = "319"
	rule2.DisplayName = "Chrono Trigger"

	fetcher := newFakeFetcher()
	fetcher.fail["355"] = true

	users := NewMemoryUserDirectory()
	require.NoError(t, users.Register(context.Background(), 1, "player"))

	var mutex sync.Mutex
	var enqueued []string
	queue := NewIngestionQueue(func(_ context.Context, username, gameID string, _ []models.AchievementRecord, _ time.Time) ([]models.AwardKind, error) {
		mutex.Lock()
		enqueued = append(enqueued, username+":"+gameID)
		mutex.Unlock()
		return nil, nil
	})

	poller := NewPoller(fetcher, newTestCatalog(zeldaRule(), rule2), users, queue, time.Hour)
	poller.PollOnce(context.Background())
	queue.Wait()

	// Both games were attempted; only the healthy one reached the queue.
	assert.Len(t, fetcher.calls, 2)
	assert.Equal(t, []string{"player:319"}, enqueued)
}
