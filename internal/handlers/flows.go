package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/twitch-nexus/internal/flow"
	"github.com/pysugar/twitch-nexus/internal/logging"
)

type startFlowRequest struct {
	Source  string           `json:"source"`
	EntryID string           `json:"entry_id,omitempty"`
	Data    *flow.ImportData `json:"data,omitempty"`
}

// StartFlowHandler initiates a setup flow. The source selects the variant:
// "user" starts the browser OAuth flow, "reauth" re-authenticates an
// existing entry, and "import" accepts legacy static credentials directly.
func StartFlowHandler(m *flow.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), GetOrGenerateRequestID(r))

		var req startFlowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var result *flow.Result
		var err error
		switch req.Source {
		case flow.SourceUser:
			result, err = m.StartUser(ctx)
		case flow.SourceReauth:
			if req.EntryID == "" {
				writeError(w, http.StatusBadRequest, "entry_id is required for reauth")
				return
			}
			result, err = m.StartReauth(ctx, req.EntryID)
		case flow.SourceImport:
			if req.Data == nil {
				writeError(w, http.StatusBadRequest, "data is required for import")
				return
			}
			result, err = m.StartImport(ctx, *req.Data)
		default:
			writeError(w, http.StatusBadRequest, "unknown flow source")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// ConfigureFlowHandler advances a pending flow by one step.
func ConfigureFlowHandler(m *flow.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), GetOrGenerateRequestID(r))
		flowID := chi.URLParam(r, "flowID")

		result, err := m.Configure(ctx, flowID)
		if errors.Is(err, flow.ErrFlowNotFound) {
			writeError(w, http.StatusNotFound, "unknown flow")
			return
		}
		if errors.Is(err, flow.ErrFlowNotReady) {
			writeError(w, http.StatusConflict, "flow is awaiting the authorization callback")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
