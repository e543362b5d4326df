package utils

import (
	"context"
	"errors"
	"log"
	"time"

	"rcb-go/models"
)

// AwardLedger is the idempotency guard for paid-out awards. RecordAward must
// be atomic with respect to concurrent callers for the same key: exactly one
// caller wins, the rest get ErrAlreadyExists.
type AwardLedger interface {
	HasAward(ctx context.Context, username, gameID string, kind models.AwardKind, year, month int) (bool, error)
	RecordAward(ctx context.Context, entry models.AwardLedgerEntry) error
	AwardsForUser(ctx context.Context, username string, year int) ([]models.AwardLedgerEntry, error)
	// RemoveAward is the admin correction path. Implementations log every
	// removal with the actor's identity.
	RemoveAward(ctx context.Context, actor, username, gameID string, kind models.AwardKind, year, month int) (bool, error)
}

// StatsStore holds the per-(user, year) aggregates. It never decides whether
// an award is valid; it records what the points engine tells it to.
type StatsStore interface {
	Stats(ctx context.Context, username string, year int) (models.UserYearlyStats, error)
	ApplyDelta(ctx context.Context, username string, year int, delta models.StatsDelta) error
	// RebuildFromLedger recomputes the aggregate from the ledger and
	// overwrites whatever was stored, returning the result.
	RebuildFromLedger(ctx context.Context, username string, year int) (models.UserYearlyStats, error)
}

// AwardAnnouncer surfaces newly granted awards to the community feed.
// Fire-and-forget: a failed announcement never rolls back a persisted award.
type AwardAnnouncer interface {
	NotifyNewAward(username string, kind models.AwardKind, points int, gameName string)
}

// NopAnnouncer discards notifications. Used in tests and offline mode.
type NopAnnouncer struct{}

func (NopAnnouncer) NotifyNewAward(string, models.AwardKind, int, string) {}

// PointsEngine is the single code path through which awards are evaluated,
// ledgered, and reflected into user stats. Nothing else writes to the ledger
// or the stats store.
type PointsEngine struct {
	catalog   *GameRuleCatalog
	ledger    AwardLedger
	stats     StatsStore
	announcer AwardAnnouncer
}

func NewPointsEngine(catalog *GameRuleCatalog, ledger AwardLedger, stats StatsStore, announcer AwardAnnouncer) *PointsEngine {
	if announcer == nil {
		announcer = NopAnnouncer{}
	}
	return &PointsEngine{catalog: catalog, ledger: ledger, stats: stats, announcer: announcer}
}

// ProcessAchievements runs one user+game achievement batch through award
// evaluation and returns the kinds that were newly granted. Calling it again
// with the same batch returns nothing: the ledger already holds the keys.
//
// Persistence failures propagate as *PersistenceError for the ingestion
// queue to retry. An ErrAlreadyExists from a lost race is not an error; the
// award is simply skipped.
func (e *PointsEngine) ProcessAchievements(ctx context.Context, username, gameID string, achievements []models.AchievementRecord, now time.Time) ([]models.AwardKind, error) {
	username = models.NormalizeUsername(username)
	if username == "" {
		return nil, nil
	}

	rule, ok := e.catalog.Rule(gameID)
	if !ok {
		// Untracked games are ignored, but visibly.
		log.Printf("points: ignoring achievements for unknown game %s (user %s)", gameID, username)
		return nil, nil
	}

	var granted []models.AwardKind
	for _, kind := range EvaluateAwards(achievements, rule) {
		if !windowAllows(rule, kind, now) {
			continue
		}

		year := now.Year()
		month := 0
		if kind.MonthScoped() {
			month = int(now.Month())
		}

		has, err := e.ledger.HasAward(ctx, username, gameID, kind, year, month)
		if err != nil {
			return granted, err
		}
		if has {
			continue
		}

		points := rule.PointValues[kind]
		entry := models.AwardLedgerEntry{
			Username:  username,
			GameID:    gameID,
			Kind:      kind,
			Points:    points,
			Year:      year,
			Month:     month,
			GrantedAt: now,
		}

		if err := e.ledger.RecordAward(ctx, entry); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				// Lost a race to a concurrent ingestion; already paid.
				continue
			}
			return granted, err
		}

		if err := e.stats.ApplyDelta(ctx, username, year, models.DeltaFor(kind, points)); err != nil {
			// The ledger write already landed, so a retry would find the key
			// and skip, leaving the aggregate short forever. Repair from the
			// ledger instead; only if the repair also fails do we propagate
			// for the queue to retry.
			if _, rerr := e.stats.RebuildFromLedger(ctx, username, year); rerr != nil {
				return granted, err
			}
		}

		granted = append(granted, kind)
		e.announcer.NotifyNewAward(username, kind, points, rule.DisplayName)
	}

	return granted, nil
}

// GetStats exposes the yearly aggregate for the command surface.
func (e *PointsEngine) GetStats(ctx context.Context, username string, year int) (models.UserYearlyStats, error) {
	return e.stats.Stats(ctx, models.NormalizeUsername(username), year)
}

// GetAwardsForUser lists a user's ledger entries for a year.
func (e *PointsEngine) GetAwardsForUser(ctx context.Context, username string, year int) ([]models.AwardLedgerEntry, error) {
	return e.ledger.AwardsForUser(ctx, models.NormalizeUsername(username), year)
}

// RemoveAward deletes a ledger entry on behalf of an admin and rebuilds the
// affected year's stats so the aggregate stays consistent with the ledger.
func (e *PointsEngine) RemoveAward(ctx context.Context, actor, username, gameID string, kind models.AwardKind, year, month int) (bool, error) {
	username = models.NormalizeUsername(username)
	removed, err := e.ledger.RemoveAward(ctx, actor, username, gameID, kind, year, month)
	if err != nil {
		return false, err
	}
	if removed {
		if _, err := e.stats.RebuildFromLedger(ctx, username, year); err != nil {
			return true, err
		}
	}
	return removed, nil
}

// RebuildStats recomputes a user-year aggregate from the ledger.
func (e *PointsEngine) RebuildStats(ctx context.Context, username string, year int) (models.UserYearlyStats, error) {
	return e.stats.RebuildFromLedger(ctx, models.NormalizeUsername(username), year)
}

// windowAllows applies the rule's eligibility window. Participation and
// beaten must land in the window's month and year; mastery can be earned any
// time during the window's year.
func windowAllows(rule *models.GameRule, kind models.AwardKind, now time.Time) bool {
	w := rule.EligibilityWindow
	if w == nil {
		return true
	}
	if kind == models.AwardMastery {
		return now.Year() == w.Year
	}
	return int(now.Month()) == w.Month && now.Year() == w.Year
}
