package models

import "testing"

func TestAwardKindValid(t *testing.T) {
	for _, kind := range AllAwardKinds {
		if !kind.Valid() {
			t.Errorf("expected %s to be valid", kind)
		}
	}
	if AwardKind("legendary").Valid() {
		t.Error("expected unknown kind to be invalid")
	}
}

func TestMonthScoped(t *testing.T) {
	if !AwardParticipation.MonthScoped() {
		t.Error("participation should be month-scoped")
	}
	if !AwardBeaten.MonthScoped() {
		t.Error("beaten should be month-scoped")
	}
	if AwardMastery.MonthScoped() {
		t.Error("mastery should be year-scoped")
	}
}

func TestNormalizeUsername(t *testing.T) {
	cases := map[string]string{
		"  Alice ":   "alice",
		"SPEEDDEMON": "speeddemon",
		"bob":        "bob",
		"   ":        "",
	}
	for input, want := range cases {
		if got := NormalizeUsername(input); got != want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAwardTitle(t *testing.T) {
	if got := AwardTitle("Chrono Trigger", AwardMastery); got != "Chrono Trigger - Mastery" {
		t.Errorf("unexpected title %q", got)
	}
	if got := AwardTitle("Chrono Trigger", AwardKind("other")); got != "Chrono Trigger" {
		t.Errorf("unexpected fallback title %q", got)
	}
}

func TestDeltaFor(t *testing.T) {
	d := DeltaFor(AwardBeaten, 3)
	if d.Points != 3 || d.GamesBeaten != 1 || d.GamesMastered != 0 || d.MonthlyParticipations != 0 {
		t.Errorf("unexpected delta for beaten: %+v", d)
	}

	d = DeltaFor(AwardMastery, 5)
	if d.Points != 5 || d.GamesMastered != 1 {
		t.Errorf("unexpected delta for mastery: %+v", d)
	}

	d = DeltaFor(AwardParticipation, 1)
	if d.Points != 1 || d.MonthlyParticipations != 1 {
		t.Errorf("unexpected delta for participation: %+v", d)
	}
}

func TestAchievementEarned(t *testing.T) {
	if (AchievementRecord{}).Earned() {
		t.Error("zero EarnedAt should read as not earned")
	}
	if !(AchievementRecord{EarnedAt: 1700000000}).Earned() {
		t.Error("nonzero EarnedAt should read as earned")
	}
}
