// Package helix is a minimal client for the parts of the Twitch API the
// setup flows need: token validation, the authenticated user, and the list
// of channels that user follows.
package helix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Default API endpoints.
const (
	DefaultHelixURL = "https://api.twitch.tv/helix"
	DefaultAuthURL  = "https://id.twitch.tv"
)

// ErrInvalidToken is returned when Twitch rejects the credentials outright
// (HTTP 401). Callers use it to distinguish a structurally invalid token
// from an identity that merely does not match.
var ErrInvalidToken = errors.New("helix: invalid token")

// Client handles communication with the Twitch API.
type Client struct {
	HTTPClient *http.Client
	HelixURL   string
	AuthURL    string
	ClientID   string
}

// NewClient creates a client for the public Twitch endpoints.
func NewClient(clientID string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		HelixURL:   DefaultHelixURL,
		AuthURL:    DefaultAuthURL,
		ClientID:   clientID,
	}
}

// User is the authenticated Twitch account.
type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// Validation is the response of the token validation endpoint.
type Validation struct {
	ClientID  string   `json:"client_id"`
	Login     string   `json:"login"`
	UserID    string   `json:"user_id"`
	Scopes    []string `json:"scopes"`
	ExpiresIn int      `json:"expires_in"`
}

// Validate checks an access token against the OAuth validation endpoint.
func (c *Client) Validate(ctx context.Context, accessToken string) (*Validation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.AuthURL+"/oauth2/validate", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("validate token: unexpected status %d", resp.StatusCode)
	}

	var v Validation
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode validation response: %w", err)
	}
	return &v, nil
}

// User returns the account the access token belongs to.
func (c *Client) User(ctx context.Context, accessToken string) (*User, error) {
	var result struct {
		Data []User `json:"data"`
	}
	if err := c.get(ctx, accessToken, "/users", nil, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("users response contained no user")
	}
	return &result.Data[0], nil
}

// FollowedChannels returns the logins of the channels the user follows, in
// the order Twitch reports them, following pagination cursors.
func (c *Client) FollowedChannels(ctx context.Context, accessToken, userID string) ([]string, error) {
	var channels []string
	cursor := ""
	for {
		params := url.Values{"user_id": {userID}}
		if cursor != "" {
			params.Set("after", cursor)
		}
		var result struct {
			Data []struct {
				BroadcasterLogin string `json:"broadcaster_login"`
			} `json:"data"`
			Pagination struct {
				Cursor string `json:"cursor"`
			} `json:"pagination"`
		}
		if err := c.get(ctx, accessToken, "/channels/followed", params, &result); err != nil {
			return nil, err
		}
		for _, ch := range result.Data {
			channels = append(channels, ch.BroadcasterLogin)
		}
		if result.Pagination.Cursor == "" {
			return channels, nil
		}
		cursor = result.Pagination.Cursor
	}
}

func (c *Client) get(ctx context.Context, accessToken, path string, params url.Values, out interface{}) error {
	u := c.HelixURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", c.ClientID)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
