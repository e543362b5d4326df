package models

import (
	"fmt"
	"strings"
	"time"
)

// AwardKind identifies the kind of point award a user can earn for a game.
// The kind is part of the award ledger key, so the values are stable and
// never change once written.
type AwardKind string

const (
	AwardParticipation AwardKind = "participation"
	AwardBeaten        AwardKind = "beaten"
	AwardMastery       AwardKind = "mastery"
)

// AllAwardKinds lists the kinds in evaluation order.
var AllAwardKinds = []AwardKind{AwardParticipation, AwardBeaten, AwardMastery}

// Valid reports whether k is a known award kind.
func (k AwardKind) Valid() bool {
	switch k {
	case AwardParticipation, AwardBeaten, AwardMastery:
		return true
	}
	return false
}

// MonthScoped reports whether entries of this kind carry a month component
// in their ledger key. Mastery is scoped to the year only.
func (k AwardKind) MonthScoped() bool {
	return k != AwardMastery
}

// AwardTitle derives display text for an award from the game name and kind.
// Presentation only; the ledger keys on the AwardKind value itself.
func AwardTitle(gameName string, kind AwardKind) string {
	switch kind {
	case AwardParticipation:
		return fmt.Sprintf("%s - Participation", gameName)
	case AwardBeaten:
		return fmt.Sprintf("%s - Beaten", gameName)
	case AwardMastery:
		return fmt.Sprintf("%s - Mastery", gameName)
	}
	return gameName
}

// NormalizeUsername trims and lowercases a username. Every component that
// keys on usernames goes through this so that "Alice " and "alice" are the
// same ledger identity.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// AchievementRecord is one observation of a user's standing on a single
// achievement, as reported by the achievement source. Records are ephemeral;
// the bot derives awards from them but never stores them.
type AchievementRecord struct {
	AchievementID int
	GameID        string
	EarnedAt      int64 // unix seconds, 0 = not yet earned
	WinCondition  bool
}

// Earned reports whether the achievement has been unlocked.
func (r AchievementRecord) Earned() bool {
	return r.EarnedAt > 0
}

// AwardLedgerEntry is the append-only idempotency record for a paid-out
// award. At most one entry exists per (Username, GameID, Kind, Year, Month);
// Month is 0 for mastery, which is year-scoped.
type AwardLedgerEntry struct {
	Username  string
	GameID    string
	Kind      AwardKind
	Points    int
	Year      int
	Month     int // 0 when the kind is not month-scoped
	GrantedAt time.Time
}

// UserYearlyStats is the per-(user, year) aggregate maintained by the points
// engine and recomputable from the ledger.
type UserYearlyStats struct {
	Username              string
	Year                  int
	TotalPoints           int
	GamesBeaten           int
	GamesMastered         int
	MonthlyParticipations int
}

// StatsDelta is an incremental update applied to UserYearlyStats. Fields are
// additive; zero values leave the counter untouched.
type StatsDelta struct {
	Points                int
	GamesBeaten           int
	GamesMastered         int
	MonthlyParticipations int
}

// DeltaFor returns the stats delta a newly granted award contributes.
func DeltaFor(kind AwardKind, points int) StatsDelta {
	d := StatsDelta{Points: points}
	switch kind {
	case AwardParticipation:
		d.MonthlyParticipations = 1
	case AwardBeaten:
		d.GamesBeaten = 1
	case AwardMastery:
		d.GamesMastered = 1
	}
	return d
}
