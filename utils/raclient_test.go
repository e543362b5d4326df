package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const raProgressPayload = `{
	"ID": 355,
	"Title": "The Legend of Zelda: A Link to the Past",
	"Achievements": {
		"944":  {"ID": 944,  "DateEarned": "2025-02-03 18:22:10"},
		"980":  {"ID": 980,  "DateEarned": ""},
		"2389": {"DateEarned": "2025-02-05 09:00:00", "type": "win_condition"}
	}
}`

func TestFetchAchievements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/API_GetGameInfoAndUserProgress.php", r.URL.Path)
		assert.Equal(t, "botuser", r.URL.Query().Get("z"))
		assert.Equal(t, "secret", r.URL.Query().Get("y"))
		assert.Equal(t, "speeddemon", r.URL.Query().Get("u"))
		assert.Equal(t, "355", r.URL.Query().Get("g"))
		w.Write([]byte(raProgressPayload))
	}))
	defer server.Close()

	client := NewRAClient("botuser", "secret")
	client.baseURL = server.URL

	records, err := client.FetchAchievements(context.Background(), "speeddemon", "355")
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Sorted by achievement id; the id falls back to the map key when the
	// payload omits it.
	assert.Equal(t, 944, records[0].AchievementID)
	assert.True(t, records[0].Earned())
	assert.False(t, records[0].WinCondition)

	assert.Equal(t, 980, records[1].AchievementID)
	assert.False(t, records[1].Earned())

	assert.Equal(t, 2389, records[2].AchievementID)
	assert.True(t, records[2].Earned())
	assert.True(t, records[2].WinCondition)
}

func TestFetchAchievementsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewRAClient("botuser", "secret")
	client.baseURL = server.URL

	_, err := client.FetchAchievements(context.Background(), "player", "355")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "player", fe.Username)
	assert.Equal(t, "355", fe.GameID)
}

func TestFetchAchievementsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewRAClient("botuser", "secret")
	client.baseURL = server.URL

	_, err := client.FetchAchievements(context.Background(), "player", "355")
	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestNewRAClientWithoutKey(t *testing.T) {
	assert.Nil(t, NewRAClient("botuser", ""))

	// A nil client still satisfies AchievementFetcher and fails loudly.
	var client *RAClient
	_, err := client.FetchAchievements(context.Background(), "player", "355")
	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestParseEarnedAt(t *testing.T) {
	assert.Equal(t, int64(0), parseEarnedAt(""))
	assert.Equal(t, int64(0), parseEarnedAt("yesterday"))
	assert.Equal(t, int64(1738607930), parseEarnedAt("2025-02-03 18:38:50"))
}
