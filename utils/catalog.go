package utils

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"rcb-go/models"
)

// GameRuleCatalog is the read-only lookup over the loaded challenge
// configuration. Rules are immutable after load; the only runtime mutation
// is revealing shadow rules once the shadow game is solved.
type GameRuleCatalog struct {
	mutex    sync.RWMutex
	rules    map[string]*models.GameRule
	shadow   map[string]*models.GameRule
	revealed bool
}

// challengeConfig is the on-disk shape of the challenge file.
type challengeConfig struct {
	Games []*models.GameRule `yaml:"games"`
}

// LoadCatalog reads and validates the challenge configuration. Validation
// fails fast: a rule with no point values, or one that requires progression
// without naming any progression achievements, is rejected at load time.
func LoadCatalog(path string) (*GameRuleCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge config: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from raw YAML.
func ParseCatalog(data []byte) (*GameRuleCatalog, error) {
	var cfg challengeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse challenge config: %w", err)
	}

	catalog := &GameRuleCatalog{
		rules:  make(map[string]*models.GameRule),
		shadow: make(map[string]*models.GameRule),
	}

	for _, rule := range cfg.Games {
		if err := validateRule(rule); err != nil {
			return nil, err
		}
		if _, dup := catalog.rules[rule.GameID]; dup {
			return nil, &ConfigError{GameID: rule.GameID, Reason: "duplicate game id"}
		}
		if _, dup := catalog.shadow[rule.GameID]; dup {
			return nil, &ConfigError{GameID: rule.GameID, Reason: "duplicate game id"}
		}
		if rule.Shadow {
			catalog.shadow[rule.GameID] = rule
		} else {
			catalog.rules[rule.GameID] = rule
		}
	}

	return catalog, nil
}

func validateRule(rule *models.GameRule) error {
	if rule.GameID == "" {
		return &ConfigError{Reason: "game rule missing game_id"}
	}
	if len(rule.PointValues) == 0 {
		return &ConfigError{GameID: rule.GameID, Reason: "no point values defined"}
	}
	for kind, points := range rule.PointValues {
		if !kind.Valid() {
			return &ConfigError{GameID: rule.GameID, Reason: fmt.Sprintf("unknown award kind %q", kind)}
		}
		if points <= 0 {
			return &ConfigError{GameID: rule.GameID, Reason: fmt.Sprintf("non-positive point value for %s", kind)}
		}
	}
	if rule.RequireProgression && len(rule.ProgressionAchievementIDs) == 0 {
		return &ConfigError{GameID: rule.GameID, Reason: "require_progression set with no progression achievement ids"}
	}
	if rule.Offers(models.AwardMastery) && !rule.MasteryEligible {
		return &ConfigError{GameID: rule.GameID, Reason: "mastery points defined but mastery_eligible is false"}
	}
	return nil
}

// Rule returns the rule for gameID, or false if the game is not tracked.
// Shadow rules are invisible until RevealShadow has been called.
func (c *GameRuleCatalog) Rule(gameID string) (*models.GameRule, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if rule, ok := c.rules[gameID]; ok {
		return rule, true
	}
	if c.revealed {
		if rule, ok := c.shadow[gameID]; ok {
			return rule, true
		}
	}
	return nil, false
}

// ActiveRules returns every currently visible rule.
func (c *GameRuleCatalog) ActiveRules() []*models.GameRule {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	rules := make([]*models.GameRule, 0, len(c.rules)+len(c.shadow))
	for _, rule := range c.rules {
		rules = append(rules, rule)
	}
	if c.revealed {
		for _, rule := range c.shadow {
			rules = append(rules, rule)
		}
	}
	return rules
}

// RevealShadow makes the shadow challenge rules visible and returns them.
// Called once when the shadow game is solved; calling again is a no-op.
func (c *GameRuleCatalog) RevealShadow() []*models.GameRule {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.revealed {
		return nil
	}
	c.revealed = true

	rules := make([]*models.GameRule, 0, len(c.shadow))
	for _, rule := range c.shadow {
		rules = append(rules, rule)
	}
	return rules
}
