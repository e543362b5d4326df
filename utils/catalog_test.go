package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcb-go/models"
)

const validConfig = `
games:
  - game_id: "355"
    display_name: "The Legend of Zelda: A Link to the Past"
    point_values:
      participation: 1
      beaten: 3
      mastery: 3
    progression_achievement_ids: [944, 980]
    win_condition_achievement_ids: [2389]
    require_all_win_conditions: true
    require_progression: true
    mastery_eligible: true
    eligibility_window:
      month: 2
      year: 2025
  - game_id: "10024"
    display_name: "Mario Tennis"
    point_values:
      participation: 1
    shadow: true
`

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(validConfig))
	require.NoError(t, err)

	rule, ok := catalog.Rule("355")
	require.True(t, ok)
	assert.Equal(t, "The Legend of Zelda: A Link to the Past", rule.DisplayName)
	assert.Equal(t, 3, rule.PointValues[models.AwardBeaten])
	require.NotNil(t, rule.EligibilityWindow)
	assert.Equal(t, 2, rule.EligibilityWindow.Month)
	assert.Equal(t, 2025, rule.EligibilityWindow.Year)

	_, ok = catalog.Rule("does-not-exist")
	assert.False(t, ok)
}

func TestParseCatalogShadowHiddenUntilRevealed(t *testing.T) {
	catalog, err := ParseCatalog([]byte(validConfig))
	require.NoError(t, err)

	_, ok := catalog.Rule("10024")
	assert.False(t, ok, "shadow rule visible before reveal")
	assert.Len(t, catalog.ActiveRules(), 1)

	revealed := catalog.RevealShadow()
	require.Len(t, revealed, 1)
	assert.Equal(t, "10024", revealed[0].GameID)

	_, ok = catalog.Rule("10024")
	assert.True(t, ok)
	assert.Len(t, catalog.ActiveRules(), 2)

	// Revealing twice is a no-op.
	assert.Empty(t, catalog.RevealShadow())
}

func TestParseCatalogValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "missing game id",
			yaml: `
games:
  - display_name: "Nameless"
    point_values:
      participation: 1
`,
		},
		{
			name: "no point values",
			yaml: `
games:
  - game_id: "1"
    display_name: "Pointless"
`,
		},
		{
			name: "unknown award kind",
			yaml: `
games:
  - game_id: "1"
    point_values:
      legendary: 10
`,
		},
		{
			name: "non-positive points",
			yaml: `
games:
  - game_id: "1"
    point_values:
      participation: 0
`,
		},
		{
			name: "require_progression without ids",
			yaml: `
games:
  - game_id: "1"
    point_values:
      beaten: 3
    require_progression: true
`,
		},
		{
			name: "mastery points without eligibility",
			yaml: `
games:
  - game_id: "1"
    point_values:
      mastery: 3
`,
		},
		{
			name: "duplicate game id",
			yaml: `
games:
  - game_id: "1"
    point_values:
      participation: 1
  - game_id: "1"
    point_values:
      participation: 1
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tc.yaml))
			require.Error(t, err)

			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestParseCatalogMalformedYAML(t *testing.T) {
	_, err := ParseCatalog([]byte("games: [what"))
	assert.Error(t, err)
}
