package utils

import (
	"context"
	"fmt"
	"time"
)

// MonthlyTotaler produces per-user point totals for one calendar month.
type MonthlyTotaler interface {
	MonthlyTotals(ctx context.Context, year, month, limit int) ([]LeaderboardRow, error)
}

// YearlyTotaler produces per-user point totals for a year.
type YearlyTotaler interface {
	YearlyTotals(ctx context.Context, year, limit int) ([]LeaderboardRow, error)
}

// LeaderboardService reads the monthly and yearly boards, caching results so
// command spam does not hammer the database.
type LeaderboardService struct {
	ledger MonthlyTotaler
	stats  YearlyTotaler
	cache  *TTLCache
	limit  int
}

func NewLeaderboardService(ledger MonthlyTotaler, stats YearlyTotaler) *LeaderboardService {
	return &LeaderboardService{
		ledger: ledger,
		stats:  stats,
		cache:  NewTTLCache(2 * time.Minute),
		limit:  10,
	}
}

// Monthly returns the current month's board.
func (s *LeaderboardService) Monthly(ctx context.Context, now time.Time) ([]LeaderboardRow, error) {
	key := fmt.Sprintf("month:%d-%d", now.Year(), int(now.Month()))
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]LeaderboardRow), nil
	}

	rows, err := s.ledger.MonthlyTotals(ctx, now.Year(), int(now.Month()), s.limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, rows)
	return rows, nil
}

// Yearly returns the current year's board.
func (s *LeaderboardService) Yearly(ctx context.Context, now time.Time) ([]LeaderboardRow, error) {
	key := fmt.Sprintf("year:%d", now.Year())
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]LeaderboardRow), nil
	}

	rows, err := s.stats.YearlyTotals(ctx, now.Year(), s.limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, rows)
	return rows, nil
}

// Invalidate drops the boards cached for now's month and year, e.g. after an
// admin correction.
func (s *LeaderboardService) Invalidate(now time.Time) {
	s.cache.Delete(fmt.Sprintf("month:%d-%d", now.Year(), int(now.Month())))
	s.cache.Delete(fmt.Sprintf("year:%d", now.Year()))
}

// Close releases the cache janitor.
func (s *LeaderboardService) Close() {
	s.cache.Close()
}
