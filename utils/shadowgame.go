package utils

import (
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"rcb-go/models"
)

// GuessResult is the outcome of a shadow-game guess.
type GuessResult int

const (
	GuessWrong GuessResult = iota
	GuessAdvanced
	GuessSolved
)

// ShadowPuzzle is one step of the shadow-game sequence.
type ShadowPuzzle struct {
	Clue   string `yaml:"clue"`
	Answer string `yaml:"answer"`
}

type shadowConfig struct {
	ShadowGame struct {
		Intro   string         `yaml:"intro"`
		Puzzles []ShadowPuzzle `yaml:"puzzles"`
	} `yaml:"shadow_game"`
}

// ShadowGame is the community easter egg: a linear sequence of puzzles that,
// once solved, reveals the hidden shadow challenge in the rule catalog.
// Progress is shared by the whole community and guarded by one mutex; there
// is nothing concurrent about it beyond that.
type ShadowGame struct {
	mutex   sync.Mutex
	intro   string
	puzzles []ShadowPuzzle
	step    int
	solved  bool

	catalog  *GameRuleCatalog
	onSolved func(revealed []*models.GameRule)
}

// ParseShadowGame reads the shadow_game section of the challenge config.
// Returns nil (no error) when the section is absent; a configured puzzle
// with an empty answer is a ConfigError.
func ParseShadowGame(data []byte, catalog *GameRuleCatalog) (*ShadowGame, error) {
	var cfg shadowConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Reason: "failed to parse shadow game config: " + err.Error()}
	}
	if len(cfg.ShadowGame.Puzzles) == 0 {
		return nil, nil
	}
	for i, p := range cfg.ShadowGame.Puzzles {
		if strings.TrimSpace(p.Answer) == "" {
			return nil, &ConfigError{Reason: "shadow game puzzle has empty answer"}
		}
		if strings.TrimSpace(p.Clue) == "" {
			return nil, &ConfigError{Reason: "shadow game puzzle has empty clue"}
		}
		cfg.ShadowGame.Puzzles[i].Answer = strings.ToLower(strings.TrimSpace(p.Answer))
	}

	return &ShadowGame{
		intro:   cfg.ShadowGame.Intro,
		puzzles: cfg.ShadowGame.Puzzles,
		catalog: catalog,
	}, nil
}

// SetSolvedHandler registers the callback fired once when the final puzzle
// falls, carrying the revealed shadow rules.
func (g *ShadowGame) SetSolvedHandler(fn func([]*models.GameRule)) {
	g.mutex.Lock()
	g.onSolved = fn
	g.mutex.Unlock()
}

// Intro returns the opening flavor text.
func (g *ShadowGame) Intro() string {
	return g.intro
}

// CurrentClue returns the active puzzle's clue, or false when the game has
// been solved.
func (g *ShadowGame) CurrentClue() (string, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.solved {
		return "", false
	}
	return g.puzzles[g.step].Clue, true
}

// Progress reports the current step and total puzzle count.
func (g *ShadowGame) Progress() (step, total int, solved bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.step, len(g.puzzles), g.solved
}

// Guess checks an answer against the current puzzle. A correct final answer
// reveals the shadow challenge rules in the catalog and fires the solved
// handler.
func (g *ShadowGame) Guess(answer string) GuessResult {
	g.mutex.Lock()

	if g.solved {
		g.mutex.Unlock()
		return GuessWrong
	}

	if strings.ToLower(strings.TrimSpace(answer)) != g.puzzles[g.step].Answer {
		g.mutex.Unlock()
		return GuessWrong
	}

	g.step++
	if g.step < len(g.puzzles) {
		g.mutex.Unlock()
		return GuessAdvanced
	}

	g.solved = true
	handler := g.onSolved
	g.mutex.Unlock()

	revealed := g.catalog.RevealShadow()
	if handler != nil {
		handler(revealed)
	}
	return GuessSolved
}
