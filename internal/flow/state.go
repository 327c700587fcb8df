package flow

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// stateSecret signs state parameters so the callback can trust the flow ID
// and redirect URI embedded in them. Regenerated on every start, which also
// invalidates any flow that outlived a restart.
var stateSecret []byte

func init() {
	stateSecret = make([]byte, 32)
	rand.Read(stateSecret)
}

var errBadState = errors.New("flow: invalid state parameter")

type statePayload struct {
	FlowID      string `json:"flow_id"`
	RedirectURI string `json:"redirect_uri"`
}

// encodeState packs the flow ID and redirect URI into an opaque signed
// token suitable for the OAuth2 state parameter.
func encodeState(flowID, redirectURI string) string {
	payload, _ := json.Marshal(statePayload{FlowID: flowID, RedirectURI: redirectURI})
	body := base64.RawURLEncoding.EncodeToString(payload)
	mac := hmac.New(sha256.New, stateSecret)
	mac.Write([]byte(body))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return body + "." + sig
}

// decodeState verifies the signature and unpacks the state parameter.
func decodeState(state string) (flowID, redirectURI string, err error) {
	body, sig, ok := strings.Cut(state, ".")
	if !ok {
		return "", "", errBadState
	}
	wantSig, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", "", errBadState
	}
	mac := hmac.New(sha256.New, stateSecret)
	mac.Write([]byte(body))
	if !hmac.Equal(mac.Sum(nil), wantSig) {
		return "", "", errBadState
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", "", errBadState
	}
	var payload statePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", "", fmt.Errorf("%w: %v", errBadState, err)
	}
	return payload.FlowID, payload.RedirectURI, nil
}
