package utils

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"rcb-go/models"
)

// MemoryAwardLedger is the in-process ledger used when no database is
// configured (the bot degrades rather than refuses to start) and as the test
// double. The mutex gives RecordAward the same exactly-one-winner semantics
// the Postgres unique index provides.
type MemoryAwardLedger struct {
	mutex   sync.Mutex
	entries map[string]models.AwardLedgerEntry
}

func NewMemoryAwardLedger() *MemoryAwardLedger {
	return &MemoryAwardLedger{entries: make(map[string]models.AwardLedgerEntry)}
}

func ledgerKey(username, gameID string, kind models.AwardKind, year, month int) string {
	return fmt.Sprintf("%s|%s|%s|%d|%d", username, gameID, kind, year, month)
}

func (l *MemoryAwardLedger) HasAward(_ context.Context, username, gameID string, kind models.AwardKind, year, month int) (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	_, ok := l.entries[ledgerKey(username, gameID, kind, year, month)]
	return ok, nil
}

func (l *MemoryAwardLedger) RecordAward(_ context.Context, entry models.AwardLedgerEntry) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	key := ledgerKey(entry.Username, entry.GameID, entry.Kind, entry.Year, entry.Month)
	if _, ok := l.entries[key]; ok {
		return ErrAlreadyExists
	}
	l.entries[key] = entry
	return nil
}

func (l *MemoryAwardLedger) AwardsForUser(_ context.Context, username string, year int) ([]models.AwardLedgerEntry, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	var out []models.AwardLedgerEntry
	for _, entry := range l.entries {
		if entry.Username == username && entry.Year == year {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GrantedAt.Equal(out[j].GrantedAt) {
			return out[i].GrantedAt.Before(out[j].GrantedAt)
		}
		return out[i].GameID < out[j].GameID
	})
	return out, nil
}

func (l *MemoryAwardLedger) RemoveAward(_ context.Context, actor, username, gameID string, kind models.AwardKind, year, month int) (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	key := ledgerKey(username, gameID, kind, year, month)
	if _, ok := l.entries[key]; !ok {
		return false, nil
	}
	delete(l.entries, key)
	log.Printf("ledger: %s removed %s award for %s on game %s (%d/%d)",
		actor, kind, username, gameID, month, year)
	return true, nil
}

// MonthlyTotals sums entries per user for one calendar month, mirroring the
// Postgres ledger's leaderboard query.
func (l *MemoryAwardLedger) MonthlyTotals(_ context.Context, year, month, limit int) ([]LeaderboardRow, error) {
	l.mutex.Lock()
	totals := make(map[string]int)
	for _, entry := range l.entries {
		if entry.Year == year && entry.Month == month {
			totals[entry.Username] += entry.Points
		}
	}
	l.mutex.Unlock()

	return sortTotals(totals, limit), nil
}

// MemoryStatsStore is the in-process counterpart to MemoryAwardLedger. It
// rebuilds from whatever ledger it is constructed with.
type MemoryStatsStore struct {
	mutex  sync.Mutex
	stats  map[string]models.UserYearlyStats
	ledger AwardLedger
}

func NewMemoryStatsStore(ledger AwardLedger) *MemoryStatsStore {
	return &MemoryStatsStore{
		stats:  make(map[string]models.UserYearlyStats),
		ledger: ledger,
	}
}

func statsKey(username string, year int) string {
	return fmt.Sprintf("%s|%d", username, year)
}

func (s *MemoryStatsStore) Stats(_ context.Context, username string, year int) (models.UserYearlyStats, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if st, ok := s.stats[statsKey(username, year)]; ok {
		return st, nil
	}
	return models.UserYearlyStats{Username: username, Year: year}, nil
}

func (s *MemoryStatsStore) ApplyDelta(_ context.Context, username string, year int, delta models.StatsDelta) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := statsKey(username, year)
	st, ok := s.stats[key]
	if !ok {
		st = models.UserYearlyStats{Username: username, Year: year}
	}
	st.TotalPoints += delta.Points
	st.GamesBeaten += delta.GamesBeaten
	st.GamesMastered += delta.GamesMastered
	st.MonthlyParticipations += delta.MonthlyParticipations
	s.stats[key] = st
	return nil
}

func (s *MemoryStatsStore) RebuildFromLedger(ctx context.Context, username string, year int) (models.UserYearlyStats, error) {
	entries, err := s.ledger.AwardsForUser(ctx, username, year)
	if err != nil {
		return models.UserYearlyStats{}, err
	}

	rebuilt := aggregateEntries(username, year, entries)

	s.mutex.Lock()
	s.stats[statsKey(username, year)] = rebuilt
	s.mutex.Unlock()
	return rebuilt, nil
}

// YearlyTotals reads the yearly board from the in-memory aggregates.
func (s *MemoryStatsStore) YearlyTotals(_ context.Context, year, limit int) ([]LeaderboardRow, error) {
	s.mutex.Lock()
	totals := make(map[string]int)
	for _, st := range s.stats {
		if st.Year == year && st.TotalPoints > 0 {
			totals[st.Username] = st.TotalPoints
		}
	}
	s.mutex.Unlock()

	return sortTotals(totals, limit), nil
}

func sortTotals(totals map[string]int, limit int) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(totals))
	for username, points := range totals {
		rows = append(rows, LeaderboardRow{Username: username, Points: points})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].Username < rows[j].Username
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// aggregateEntries folds ledger entries into a yearly aggregate. Shared by
// both stats store implementations so a rebuild means the same thing
// everywhere.
func aggregateEntries(username string, year int, entries []models.AwardLedgerEntry) models.UserYearlyStats {
	st := models.UserYearlyStats{Username: username, Year: year}
	for _, entry := range entries {
		st.TotalPoints += entry.Points
		switch entry.Kind {
		case models.AwardParticipation:
			st.MonthlyParticipations++
		case models.AwardBeaten:
			st.GamesBeaten++
		case models.AwardMastery:
			st.GamesMastered++
		}
	}
	return st
}
