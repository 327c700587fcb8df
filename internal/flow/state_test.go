package flow

import (
	"strings"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	state := encodeState("flow-1", "https://example.com/auth/external/callback")

	flowID, redirectURI, err := decodeState(state)
	if err != nil {
		t.Fatalf("decodeState failed: %v", err)
	}
	if flowID != "flow-1" {
		t.Errorf("expected flow-1, got %q", flowID)
	}
	if redirectURI != "https://example.com/auth/external/callback" {
		t.Errorf("unexpected redirect uri %q", redirectURI)
	}
}

func TestStateRejectsTampering(t *testing.T) {
	state := encodeState("flow-1", "https://example.com/auth/external/callback")

	body, sig, _ := strings.Cut(state, ".")
	tampered := body + "x." + sig
	if _, _, err := decodeState(tampered); err == nil {
		t.Error("expected tampered payload to be rejected")
	}

	if _, _, err := decodeState(body); err == nil {
		t.Error("expected state without signature to be rejected")
	}

	if _, _, err := decodeState("not-a-state"); err == nil {
		t.Error("expected garbage state to be rejected")
	}
}

func TestStateIsOpaque(t *testing.T) {
	state := encodeState("flow-1", "https://example.com/cb")
	if strings.Contains(state, "flow-1") || strings.Contains(state, "example.com") {
		t.Errorf("state leaks its payload in plain text: %q", state)
	}
}
