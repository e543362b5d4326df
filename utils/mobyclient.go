package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// MobyClient looks up game metadata from the MobyGames API. Used by the
// /gameinfo command and the arcade board titles.
type MobyClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *TTLCache
}

// MobyGame is the slice of MobyGames metadata the bot displays.
type MobyGame struct {
	GameID      int     `json:"game_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MobyScore   float64 `json:"moby_score"`
	Platforms   []struct {
		PlatformName string `json:"platform_name"`
	} `json:"platforms"`
}

type mobySearchResponse struct {
	Games []MobyGame `json:"games"`
}

// NewMobyClient creates a MobyGames client, or nil when no key is set.
func NewMobyClient(apiKey string) *MobyClient {
	if apiKey == "" {
		return nil
	}
	return &MobyClient{
		apiKey:  apiKey,
		baseURL: "https://api.mobygames.com/v1",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: NewTTLCache(1 * time.Hour),
	}
}

// SearchGame returns the best title match for a query. Responses are cached;
// MobyGames rate-limits aggressively.
func (c *MobyClient) SearchGame(ctx context.Context, title string) (*MobyGame, error) {
	if c == nil {
		return nil, &FetchError{GameID: title, Err: fmt.Errorf("MobyGames client not configured")}
	}

	cacheKey := "moby:" + title
	if cached, ok := c.cache.Get(cacheKey); ok {
		game := cached.(MobyGame)
		return &game, nil
	}

	params := url.Values{}
	params.Set("title", title)
	params.Set("api_key", c.apiKey)
	params.Set("limit", "1")

	endpoint := fmt.Sprintf("%s/games?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{GameID: title, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{GameID: title, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{GameID: title, Err: fmt.Errorf("MobyGames API returned status %d", resp.StatusCode)}
	}

	var search mobySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, &FetchError{GameID: title, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(search.Games) == 0 {
		return nil, &FetchError{GameID: title, Err: fmt.Errorf("no MobyGames match")}
	}

	c.cache.Set(cacheKey, search.Games[0])
	return &search.Games[0], nil
}

// Close releases the client's cache janitor.
func (c *MobyClient) Close() {
	if c != nil {
		c.cache.Close()
	}
}
