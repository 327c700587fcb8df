// Package handlers exposes the flow, entry, and issue APIs over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pysugar/twitch-nexus/internal/logging"
)

// GetOrGenerateRequestID returns the client-provided X-Request-ID or
// generates a fresh one.
func GetOrGenerateRequestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return logging.GenerateRequestID()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
