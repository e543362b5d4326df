package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"rcb-go/models"
)

// AchievementFetcher is the achievement-source capability the poller and the
// admin commands consume. Any failure means "no data this cycle": the caller
// skips, never awards from partial results.
type AchievementFetcher interface {
	FetchAchievements(ctx context.Context, username, gameID string) ([]models.AchievementRecord, error)
}

// RAClient talks to the RetroAchievements web API.
type RAClient struct {
	apiUser string
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewRAClient creates a RetroAchievements client. Returns nil when no API
// key is configured; callers treat a nil client as "no achievement source".
func NewRAClient(apiUser, apiKey string) *RAClient {
	if apiKey == "" {
		return nil
	}
	return &RAClient{
		apiUser: apiUser,
		apiKey:  apiKey,
		baseURL: "https://retroachievements.org/API",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// raAchievement is one achievement in the progress payload. The API reports
// unearned achievements with an empty DateEarned.
type raAchievement struct {
	ID         int    `json:"ID"`
	DateEarned string `json:"DateEarned"`
	Type       string `json:"type"`
}

type raGameProgress struct {
	ID           int                      `json:"ID"`
	Title        string                   `json:"Title"`
	Achievements map[string]raAchievement `json:"Achievements"`
}

// FetchAchievements returns the user's current standing on every achievement
// of a game. Errors are wrapped as *FetchError.
func (c *RAClient) FetchAchievements(ctx context.Context, username, gameID string) ([]models.AchievementRecord, error) {
	if c == nil {
		return nil, &FetchError{Username: username, GameID: gameID, Err: fmt.Errorf("achievement source not configured")}
	}

	params := url.Values{}
	params.Set("z", c.apiUser)
	params.Set("y", c.apiKey)
	params.Set("u", username)
	params.Set("g", gameID)

	endpoint := fmt.Sprintf("%s/API_GetGameInfoAndUserProgress.php?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Username: username, GameID: gameID, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Username: username, GameID: gameID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Username: username, GameID: gameID,
			Err: fmt.Errorf("RetroAchievements API returned status %d", resp.StatusCode)}
	}

	var progress raGameProgress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		return nil, &FetchError{Username: username, GameID: gameID,
			Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	records := make([]models.AchievementRecord, 0, len(progress.Achievements))
	for key, a := range progress.Achievements {
		id := a.ID
		if id == 0 {
			// Some payloads only carry the id in the map key.
			id, _ = strconv.Atoi(key)
		}
		records = append(records, models.AchievementRecord{
			AchievementID: id,
			GameID:        gameID,
			EarnedAt:      parseEarnedAt(a.DateEarned),
			WinCondition:  a.Type == "win_condition",
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].AchievementID < records[j].AchievementID
	})

	return records, nil
}

// parseEarnedAt converts the API's timestamp to unix seconds; anything
// unparseable reads as "not earned".
func parseEarnedAt(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return 0
	}
	return t.Unix()
}
