package flow

import (
	"fmt"
	"log"
	"net/http"
	"strings"
)

// HandleCallback processes the authorization redirect from Twitch. It
// validates the state parameter, exchanges the code for a token pair, and
// resumes the suspended flow.
func HandleCallback(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		flowID, redirectURI, err := decodeState(state)
		if err != nil {
			http.Error(w, "Invalid state token", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		cfg := m.oauthConfig(redirectURI)

		token, err := cfg.Exchange(r.Context(), code)
		if err != nil {
			log.Printf("[callback] token exchange failed for flow %s: %v", flowID, err)
			http.Error(w, fmt.Sprintf("Token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		err = m.deliverToken(flowID, &Token{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    token.Expiry,
			Scope:        strings.Join(cfg.Scopes, " "),
		})
		if err != nil {
			http.Error(w, "Unknown or expired flow", http.StatusNotFound)
			return
		}

		log.Printf("[callback] flow %s received authorization", flowID)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Authorization Complete</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; text-align: center; }
		.success { color: #16a34a; font-size: 24px; }
	</style>
</head>
<body>
	<div class="success">&#10003; Authorization complete</div>
	<p>You can close this window and return to the setup wizard.</p>
</body>
</html>`)
	}
}
