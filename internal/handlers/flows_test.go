package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	twitchauth "github.com/pysugar/twitch-nexus/internal/auth/twitch"
	"github.com/pysugar/twitch-nexus/internal/db"
	"github.com/pysugar/twitch-nexus/internal/entries"
	"github.com/pysugar/twitch-nexus/internal/flow"
	"github.com/pysugar/twitch-nexus/internal/helix"
	"github.com/pysugar/twitch-nexus/internal/issues"
	"golang.org/x/oauth2"
)

// newTestRouter wires the API the way cmd/twitchnexus does, against a fake
// Twitch backend that knows one account.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/validate":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"user_id": "123", "login": "channel123",
				"scopes": twitchauth.Scopes, "expires_in": 5000,
			})
		case "/helix/users":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]string{
					{"id": "123", "login": "channel123", "display_name": "channel123"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fake.Close)

	database, err := db.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}

	client := helix.NewClient("1234")
	client.HelixURL = fake.URL + "/helix"
	client.AuthURL = fake.URL

	store := entries.NewStore(database)
	registry := issues.NewRegistry(database)
	manager := flow.NewManager(store, registry, client, func(redirectURL string) *oauth2.Config {
		return twitchauth.Config("1234", "abcd", redirectURL)
	}, "https://example.com")

	r := chi.NewRouter()
	r.Get(flow.CallbackPath, flow.HandleCallback(manager))
	r.Route("/api", func(r chi.Router) {
		r.Post("/flows", StartFlowHandler(manager))
		r.Post("/flows/{flowID}", ConfigureFlowHandler(manager))
		r.Get("/entries", EntriesHandler(store))
		r.Get("/issues", IssuesHandler(registry))
		r.Get("/version", VersionHandler())
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestImportFlowOverAPI(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/flows", `{
		"source": "import",
		"data": {"platform": "twitch", "client_id": "1234", "client_secret": "abcd", "token": "efgh", "channels": ["channel123"]}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start flow returned %d: %s", rec.Code, rec.Body.String())
	}

	var result flow.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result.Type != flow.TypeCreateEntry || result.Title != "channel123" {
		t.Fatalf("unexpected result %+v", result)
	}

	rec = doJSON(t, router, "GET", "/api/entries", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("entries returned %d", rec.Code)
	}
	var views []struct {
		UniqueID string `json:"unique_id"`
		Imported bool   `json:"imported"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("failed to decode entries: %v", err)
	}
	if len(views) != 1 || views[0].UniqueID != "123" || !views[0].Imported {
		t.Fatalf("unexpected entries %+v", views)
	}
}

func TestStartUserFlowOverAPI(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/flows", `{"source": "user"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start flow returned %d: %s", rec.Code, rec.Body.String())
	}

	var result flow.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result.Type != flow.TypeForm || result.StepID != flow.StepAuth || result.URL == "" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestStartFlowBadRequests(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown source", `{"source": "telepathy"}`},
		{"reauth without entry", `{"source": "reauth"}`},
		{"import without data", `{"source": "import"}`},
		{"garbage body", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, "POST", "/api/flows", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestConfigureUnknownFlowOverAPI(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/flows/does-not-exist", "{}")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestIssuesEndpointEmpty(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "GET", "/api/issues", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("issues returned %d", rec.Code)
	}
	var all []interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("failed to decode issues: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no issues, got %d", len(all))
	}
}

func TestVersionEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, "GET", "/api/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("version returned %d", rec.Code)
	}
	var v map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode version: %v", err)
	}
	if v["version"] == "" {
		t.Error("version field is empty")
	}
}
