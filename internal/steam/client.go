// Package steam wraps the subset of the Steam Web API this service consumes:
// single profile summaries, friend ID rosters and batched profile summaries.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"steam-chat/internal/models"
)

const defaultBaseURL = "https://api.steampowered.com"

var (
	// ErrProfileNotFound means upstream answered but returned no player for
	// the requested ID (private or deleted profile). A valid outcome, never
	// cached.
	ErrProfileNotFound = errors.New("steam: profile not found")

	// ErrUnavailable covers upstream errors, timeouts and rate limiting.
	ErrUnavailable = errors.New("steam: upstream unavailable")
)

// Client calls the Steam Web API with a bounded timeout.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient builds a Steam API client. baseURL other than "" overrides the
// production endpoint (used by tests).
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type playerSummariesResponse struct {
	Response struct {
		Players []models.PlayerSummary `json:"players"`
	} `json:"response"`
}

type friendListResponse struct {
	FriendsList struct {
		Friends []struct {
			SteamID string `json:"steamid"`
		} `json:"friends"`
	} `json:"friendslist"`
}

// GetPlayerSummary fetches exactly one profile. Returns ErrProfileNotFound
// when upstream reports no player for the ID.
func (c *Client) GetPlayerSummary(ctx context.Context, steamID string) (*models.PlayerSummary, error) {
	var parsed playerSummariesResponse
	if err := c.get(ctx, "/ISteamUser/GetPlayerSummaries/v2/", url.Values{
		"steamids": {steamID},
	}, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Response.Players) == 0 {
		return nil, ErrProfileNotFound
	}
	player := parsed.Response.Players[0]
	return &player, nil
}

// GetFriendIDs fetches the raw friend roster for a user, in upstream order.
func (c *Client) GetFriendIDs(ctx context.Context, steamID string) ([]string, error) {
	var parsed friendListResponse
	if err := c.get(ctx, "/ISteamUser/GetFriendList/v1/", url.Values{
		"steamid":      {steamID},
		"relationship": {"friend"},
	}, &parsed); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(parsed.FriendsList.Friends))
	for _, f := range parsed.FriendsList.Friends {
		ids = append(ids, f.SteamID)
	}
	return ids, nil
}

// GetPlayerSummaries fetches profile summaries for ids, batching sequentially
// in MaxIDsPerBatch chunks and concatenating results. Fails as a whole on the
// first batch error.
func (c *Client) GetPlayerSummaries(ctx context.Context, ids []string) ([]models.PlayerSummary, error) {
	var players []models.PlayerSummary
	for _, chunk := range ChunkIDs(ids, MaxIDsPerBatch) {
		var parsed playerSummariesResponse
		if err := c.get(ctx, "/ISteamUser/GetPlayerSummaries/v2/", url.Values{
			"steamids": {strings.Join(chunk, ",")},
		}, &parsed); err != nil {
			return nil, err
		}
		players = append(players, parsed.Response.Players...)
	}
	return players, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// 429 and any other non-OK status are treated alike: the caller is told
	// the upstream failed and nothing gets cached.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}
