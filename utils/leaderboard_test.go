package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcb-go/models"
)

func TestLeaderboardServiceCachesAndInvalidates(t *testing.T) {
	ledger := NewMemoryAwardLedger()
	stats := NewMemoryStatsStore(ledger)
	boards := NewLeaderboardService(ledger, stats)
	defer boards.Close()

	ctx := context.Background()
	now := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

	grant := func(username string, points int) {
		entry := models.AwardLedgerEntry{
			Username: username, GameID: "355", Kind: models.AwardBeaten,
			Points: points, Year: now.Year(), Month: int(now.Month()), GrantedAt: now,
		}
		require.NoError(t, ledger.RecordAward(ctx, entry))
		require.NoError(t, stats.ApplyDelta(ctx, username, now.Year(), models.DeltaFor(models.AwardBeaten, points)))
	}

	grant("alice", 3)

	rows, err := boards.Monthly(ctx, now)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// A new award is invisible while the cached snapshot is live.
	grant("bob", 3)
	rows, err = boards.Monthly(ctx, now)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// Invalidating for the same reference time drops both boards.
	boards.Invalidate(now)
	rows, err = boards.Monthly(ctx, now)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	yearly, err := boards.Yearly(ctx, now)
	require.NoError(t, err)
	require.Len(t, yearly, 2)

	grant("carol", 3)
	boards.Invalidate(now)
	yearly, err = boards.Yearly(ctx, now)
	require.NoError(t, err)
	assert.Len(t, yearly, 3)
}
