package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rcb-go/models"
)

func record(gameID string, id int, earned bool) models.AchievementRecord {
	r := models.AchievementRecord{AchievementID: id, GameID: gameID}
	if earned {
		r.EarnedAt = 1700000000
	}
	return r
}

func baseRule() *models.GameRule {
	return &models.GameRule{
		GameID:      "100",
		DisplayName: "Test Game",
		PointValues: map[models.AwardKind]int{
			models.AwardParticipation: 1,
			models.AwardBeaten:        3,
			models.AwardMastery:       3,
		},
		ProgressionAchievementIDs:  []int{1, 2},
		WinConditionAchievementIDs: []int{3},
		RequireAllWinConditions:    true,
		RequireProgression:         true,
		MasteryEligible:            true,
	}
}

func TestEvaluateParticipation(t *testing.T) {
	rule := baseRule()

	// Nothing earned: no awards at all.
	achievements := []models.AchievementRecord{
		record("100", 1, false),
		record("100", 2, false),
	}
	assert.Empty(t, EvaluateAwards(achievements, rule))

	// One earned achievement is enough for participation.
	achievements[0].EarnedAt = 1700000000
	assert.Equal(t, []models.AwardKind{models.AwardParticipation}, EvaluateAwards(achievements, rule))
}

func TestEvaluateParticipationNotOffered(t *testing.T) {
	rule := baseRule()
	delete(rule.PointValues, models.AwardParticipation)

	achievements := []models.AchievementRecord{record("100", 1, true)}
	assert.Empty(t, EvaluateAwards(achievements, rule))
}

func TestEvaluateBeatenRequiresProgression(t *testing.T) {
	rule := baseRule()

	// Win condition met but progression incomplete.
	achievements := []models.AchievementRecord{
		record("100", 1, true),
		record("100", 2, false),
		record("100", 3, true),
	}
	kinds := EvaluateAwards(achievements, rule)
	assert.NotContains(t, kinds, models.AwardBeaten)

	// Completing progression satisfies beaten.
	achievements[1].EarnedAt = 1700000000
	kinds = EvaluateAwards(achievements, rule)
	assert.Contains(t, kinds, models.AwardBeaten)
}

func TestEvaluateBeatenAllWinConditions(t *testing.T) {
	rule := baseRule()
	rule.RequireProgression = false
	rule.ProgressionAchievementIDs = nil
	rule.WinConditionAchievementIDs = []int{10, 11}
	rule.RequireAllWinConditions = true

	// Only one of two win conditions earned.
	achievements := []models.AchievementRecord{
		record("100", 10, true),
		record("100", 11, false),
	}
	assert.NotContains(t, EvaluateAwards(achievements, rule), models.AwardBeaten)

	achievements[1].EarnedAt = 1700000000
	assert.Contains(t, EvaluateAwards(achievements, rule), models.AwardBeaten)
}

func TestEvaluateBeatenAnyWinCondition(t *testing.T) {
	rule := baseRule()
	rule.RequireProgression = false
	rule.ProgressionAchievementIDs = nil
	rule.WinConditionAchievementIDs = []int{10, 11}
	rule.RequireAllWinConditions = false

	achievements := []models.AchievementRecord{
		record("100", 10, true),
		record("100", 11, false),
	}
	assert.Contains(t, EvaluateAwards(achievements, rule), models.AwardBeaten)
}

func TestEvaluateBeatenVacuousProgression(t *testing.T) {
	// No progression list, progression not required, no win conditions:
	// beaten is satisfied by the progression check alone.
	rule := baseRule()
	rule.RequireProgression = false
	rule.ProgressionAchievementIDs = nil
	rule.WinConditionAchievementIDs = nil

	achievements := []models.AchievementRecord{record("100", 5, true)}
	assert.Contains(t, EvaluateAwards(achievements, rule), models.AwardBeaten)
}

func TestEvaluateMasteryByCount(t *testing.T) {
	rule := baseRule()

	// 2 of 3 earned: no mastery.
	achievements := []models.AchievementRecord{
		record("100", 1, true),
		record("100", 2, true),
		record("100", 3, false),
	}
	assert.NotContains(t, EvaluateAwards(achievements, rule), models.AwardMastery)

	// All earned: mastery.
	achievements[2].EarnedAt = 1700000000
	assert.Contains(t, EvaluateAwards(achievements, rule), models.AwardMastery)
}

func TestEvaluateMasteryNeedsEligibility(t *testing.T) {
	rule := baseRule()
	rule.MasteryEligible = false
	delete(rule.PointValues, models.AwardMastery)

	achievements := []models.AchievementRecord{record("100", 1, true)}
	assert.NotContains(t, EvaluateAwards(achievements, rule), models.AwardMastery)
}

func TestEvaluateMasteryEmptySet(t *testing.T) {
	rule := baseRule()
	rule.RequireProgression = false

	// No achievements at all: never mastered.
	assert.Empty(t, EvaluateAwards(nil, rule))
}

func TestEvaluateFiltersOtherGames(t *testing.T) {
	rule := baseRule()

	// Earned achievements for a different game contribute nothing.
	achievements := []models.AchievementRecord{
		record("999", 1, true),
		record("999", 2, true),
		record("999", 3, true),
	}
	assert.Empty(t, EvaluateAwards(achievements, rule))
}

func TestEvaluateDeterministicOrder(t *testing.T) {
	rule := baseRule()
	achievements := []models.AchievementRecord{
		record("100", 1, true),
		record("100", 2, true),
		record("100", 3, true),
	}

	expected := []models.AwardKind{models.AwardParticipation, models.AwardBeaten, models.AwardMastery}
	for i := 0; i < 10; i++ {
		assert.Equal(t, expected, EvaluateAwards(achievements, rule))
	}
}

func TestEvaluateNilRule(t *testing.T) {
	assert.Empty(t, EvaluateAwards([]models.AchievementRecord{record("100", 1, true)}, nil))
}
