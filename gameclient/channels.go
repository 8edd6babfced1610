// gameclient/channels.go
package gameclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

const (
	StoreChannelName = "supabase"
	APIChannelName   = "backend_api"
)

// TokenSource returns the current player's access token, or "" for guests.
type TokenSource func() string

// StoreChannel inserts directly into the game_results table through Supabase's
// PostgREST endpoint. Row-level security decides what the caller may write.
type StoreChannel struct {
	baseURL string
	apiKey  string
	token   TokenSource
	client  *http.Client
}

func NewStoreChannel(cfg models.SupabaseConfig, token TokenSource, client *http.Client) *StoreChannel {
	if client == nil {
		client = utils.HTTPClient
	}
	return &StoreChannel{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.Key(),
		token:   token,
		client:  client,
	}
}

func (c *StoreChannel) Name() string { return StoreChannelName }

func (c *StoreChannel) Attempt(ctx context.Context, rec *models.GameRecord) AttemptResult {
	if c.baseURL == "" || c.apiKey == "" {
		return Failed(&ChannelError{Channel: c.Name(), Err: fmt.Errorf("store client not configured")})
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return Failed(&ChannelError{Channel: c.Name(), Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/game_results", bytes.NewReader(body))
	if err != nil {
		return Failed(&ChannelError{Channel: c.Name(), Err: err})
	}
	bearer := c.apiKey
	if c.token != nil {
		if t := c.token(); t != "" {
			bearer = t
		}
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.client.Do(req)
	if err != nil {
		return Failed(&ChannelError{Channel: c.Name(), Err: err})
	}
	defer utils.DrainClose(resp)

	if utils.IsSuccess(resp.StatusCode) {
		return Delivered()
	}
	msg := utils.ReadErrorBody(resp)
	// 23505 is postgres unique_violation on session_id
	if resp.StatusCode == http.StatusConflict || strings.Contains(msg, "23505") {
		return Conflict()
	}
	return Failed(&ChannelError{Channel: c.Name(), Status: resp.StatusCode, Body: msg})
}

// APIChannel posts to the results backend. Completed games go to /api/save-game,
// abandoned ones to /api/save-abandoned-game.
type APIChannel struct {
	baseURL string
	token   TokenSource
	client  *http.Client
}

func NewAPIChannel(baseURL string, token TokenSource, client *http.Client) *APIChannel {
	if client == nil {
		client = utils.HTTPClient
	}
	return &APIChannel{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

func (c *APIChannel) Name() string { return APIChannelName }

func (c *APIChannel) Attempt(ctx context.Context, rec *models.GameRecord) AttemptResult {
	path := "/api/save-game"
	if !rec.Completed {
		path = "/api/save-abandoned-game"
	}
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return Failed(&ChannelError{Channel: c.Name(), Err: err})
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return Failed(&ChannelError{Channel: c.Name(), Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Failed(&ChannelError{Channel: c.Name(), Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if t := c.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Failed(&ChannelError{Channel: c.Name(), Err: err})
	}
	defer utils.DrainClose(resp)

	switch {
	case utils.IsSuccess(resp.StatusCode):
		return Delivered()
	case resp.StatusCode == http.StatusConflict:
		return Conflict()
	default:
		return Failed(&ChannelError{Channel: c.Name(), Status: resp.StatusCode, Body: utils.ReadErrorBody(resp)})
	}
}
