package twitch

import (
	"os"

	"golang.org/x/oauth2"
)

// OAuth endpoints for the Twitch identity service.
const (
	AuthorizeURL = "https://id.twitch.tv/oauth2/authorize"
	TokenURL     = "https://id.twitch.tv/oauth2/token"
)

// Scopes required to resolve the account and its followed channels.
var Scopes = []string{
	"user:read:follows",
	"user:read:subscriptions",
}

// Endpoint is the oauth2 endpoint pair for Twitch.
var Endpoint = oauth2.Endpoint{
	AuthURL:  AuthorizeURL,
	TokenURL: TokenURL,
}

// Config returns the OAuth2 config for Twitch authentication.
func Config(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     Endpoint,
	}
}

// ConfigFromEnv builds a Config from TWITCH_CLIENT_ID and
// TWITCH_CLIENT_SECRET.
func ConfigFromEnv(redirectURL string) *oauth2.Config {
	return Config(os.Getenv("TWITCH_CLIENT_ID"), os.Getenv("TWITCH_CLIENT_SECRET"), redirectURL)
}
