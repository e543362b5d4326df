package models

// MonthYear is a calendar window a challenge game is eligible in.
type MonthYear struct {
	Month int `yaml:"month"`
	Year  int `yaml:"year"`
}

// GameRule is the static configuration for one trackable game: which awards
// it offers, what completing it means, and when it is eligible. Rules are
// loaded once at startup and never mutated afterwards.
type GameRule struct {
	GameID      string `yaml:"game_id"`
	DisplayName string `yaml:"display_name"`

	// PointValues maps each offered award kind to its point value. A kind
	// absent from the map is not offered by this game.
	PointValues map[AwardKind]int `yaml:"point_values"`

	ProgressionAchievementIDs  []int `yaml:"progression_achievement_ids"`
	WinConditionAchievementIDs []int `yaml:"win_condition_achievement_ids"`

	RequireAllWinConditions bool `yaml:"require_all_win_conditions"`
	RequireProgression      bool `yaml:"require_progression"`
	MasteryEligible         bool `yaml:"mastery_eligible"`

	// EligibilityWindow restricts participation/beaten awards to one calendar
	// month. Mastery only has to land in the window's year. Nil means the
	// game is always eligible.
	EligibilityWindow *MonthYear `yaml:"eligibility_window"`

	// Shadow rules stay out of the catalog until the shadow game is solved.
	Shadow bool `yaml:"shadow"`
}

// Offers reports whether the rule defines a point value for kind.
func (r *GameRule) Offers(kind AwardKind) bool {
	_, ok := r.PointValues[kind]
	return ok
}
