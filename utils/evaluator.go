package utils

import "rcb-go/models"

// EvaluateAwards computes which award kinds a user's achievement list
// currently satisfies for a game, per that game's rule. Pure function: no
// I/O, deterministic, and safe to call repeatedly with the same input.
// Malformed or absent achievement data reads as "not earned" rather than
// failing the batch.
//
// Results are ordered participation, beaten, mastery. Only kinds with a
// point value defined in the rule are returned; whether an award has
// already been paid out is the ledger's concern, not this function's.
func EvaluateAwards(achievements []models.AchievementRecord, rule *models.GameRule) []models.AwardKind {
	if rule == nil {
		return nil
	}

	earned := make(map[int]bool)
	total := 0
	earnedCount := 0
	for _, a := range achievements {
		if a.GameID != rule.GameID {
			continue
		}
		total++
		if a.Earned() {
			earned[a.AchievementID] = true
			earnedCount++
		}
	}

	var satisfied []models.AwardKind

	if rule.Offers(models.AwardParticipation) && earnedCount > 0 {
		satisfied = append(satisfied, models.AwardParticipation)
	}

	if rule.Offers(models.AwardBeaten) && beatenSatisfied(earned, rule) {
		satisfied = append(satisfied, models.AwardBeaten)
	}

	// Mastery is 100% completion by count. Counting sidesteps the float
	// percentage comparison entirely.
	if rule.Offers(models.AwardMastery) && rule.MasteryEligible &&
		total > 0 && earnedCount == total {
		satisfied = append(satisfied, models.AwardMastery)
	}

	return satisfied
}

func beatenSatisfied(earned map[int]bool, rule *models.GameRule) bool {
	// Progression: all listed achievements earned. Vacuously true when the
	// list is empty and progression is not required.
	if rule.RequireProgression {
		for _, id := range rule.ProgressionAchievementIDs {
			if !earned[id] {
				return false
			}
		}
	}

	if len(rule.WinConditionAchievementIDs) == 0 {
		// No win conditions defined; progression alone decides.
		return true
	}

	if rule.RequireAllWinConditions {
		for _, id := range rule.WinConditionAchievementIDs {
			if !earned[id] {
				return false
			}
		}
		return true
	}

	for _, id := range rule.WinConditionAchievementIDs {
		if earned[id] {
			return true
		}
	}
	return false
}
