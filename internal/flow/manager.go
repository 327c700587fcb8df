// Package flow drives the Twitch account setup flows: the browser-based
// OAuth2 flow, re-authentication of an existing entry, and the legacy
// import path for static tokens.
package flow

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pysugar/twitch-nexus/internal/db/models"
	"github.com/pysugar/twitch-nexus/internal/entries"
	"github.com/pysugar/twitch-nexus/internal/helix"
	"github.com/pysugar/twitch-nexus/internal/issues"
	"github.com/pysugar/twitch-nexus/internal/logging"
	"golang.org/x/oauth2"
)

// CallbackPath is where the authorization redirect lands.
const CallbackPath = "/auth/external/callback"

// Flow sources.
const (
	SourceUser   = "user"
	SourceReauth = "reauth"
	SourceImport = "import"
)

// Result types.
type ResultType string

const (
	TypeForm        ResultType = "form"
	TypeCreateEntry ResultType = "create_entry"
	TypeAbort       ResultType = "abort"
)

// Form steps.
const (
	StepAuth          = "auth"
	StepReauthConfirm = "reauth_confirm"
)

// Abort reasons.
const (
	ReasonAlreadyConfigured = "already_configured"
	ReasonReauthSuccessful  = "reauth_successful"
	ReasonWrongAccount      = "wrong_account"
	ReasonInvalidToken      = "invalid_token"
)

// Issue IDs raised by the import flow.
const (
	IssueImportInvalidToken      = "twitch_import_invalid_token"
	IssueImportAlreadyConfigured = "twitch_import_already_configured"
)

var (
	// ErrFlowNotFound means the flow ID is unknown or already finished.
	ErrFlowNotFound = errors.New("flow: not found")
	// ErrFlowNotReady means the flow is still waiting for the callback.
	ErrFlowNotReady = errors.New("flow: awaiting authorization callback")
)

// Token is the credential set stored on an entry.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
}

// EntryData is the data block of a created entry.
type EntryData struct {
	Token Token `json:"token"`
}

// Options holds the configurable entry options.
type Options struct {
	Channels []string `json:"channels"`
}

// CreatedEntry describes the entry a finished flow produced.
type CreatedEntry struct {
	UniqueID string    `json:"unique_id"`
	Title    string    `json:"title"`
	Data     EntryData `json:"data"`
}

// Result is the outcome of a flow step.
type Result struct {
	Type    ResultType    `json:"type"`
	FlowID  string        `json:"flow_id,omitempty"`
	StepID  string        `json:"step_id,omitempty"`
	URL     string        `json:"url,omitempty"`
	Title   string        `json:"title,omitempty"`
	Entry   *CreatedEntry `json:"result,omitempty"`
	Options *Options      `json:"options,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// ImportData is the legacy configuration shape accepted by the import flow.
type ImportData struct {
	Platform     string   `json:"platform" yaml:"platform"`
	ClientID     string   `json:"client_id" yaml:"client_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret"`
	Token        string   `json:"token" yaml:"token"`
	Channels     []string `json:"channels" yaml:"channels"`
}

// OAuthConfigFunc builds the oauth2 config for a given redirect URL.
type OAuthConfigFunc func(redirectURL string) *oauth2.Config

type flowState struct {
	id      string
	source  string
	entryID string // reauth target
	step    string
	token   *Token
}

// Manager owns the in-flight flows. One flow serves one user interaction;
// flows are dropped as soon as they reach a terminal result.
type Manager struct {
	mu          sync.Mutex
	flows       map[string]*flowState
	store       *entries.Store
	issues      *issues.Registry
	client      *helix.Client
	oauthConfig OAuthConfigFunc
	externalURL string
}

// NewManager creates a flow manager.
func NewManager(store *entries.Store, reg *issues.Registry, client *helix.Client, oauthConfig OAuthConfigFunc, externalURL string) *Manager {
	return &Manager{
		flows:       make(map[string]*flowState),
		store:       store,
		issues:      reg,
		client:      client,
		oauthConfig: oauthConfig,
		externalURL: externalURL,
	}
}

func (m *Manager) redirectURI() string {
	return strings.TrimSuffix(m.externalURL, "/") + CallbackPath
}

// StartUser begins a browser-based setup flow for a new account. The result
// carries the authorization URL the user must visit.
func (m *Manager) StartUser(ctx context.Context) (*Result, error) {
	f := &flowState{id: uuid.New().String(), source: SourceUser, step: StepAuth}

	m.mu.Lock()
	m.flows[f.id] = f
	m.mu.Unlock()

	logf(ctx, "started user flow %s", f.id)
	return m.authResult(f), nil
}

// StartReauth begins re-authentication for an existing entry. The user must
// confirm the step before a new authorization round-trip starts.
func (m *Manager) StartReauth(ctx context.Context, entryID string) (*Result, error) {
	entry, err := m.store.ByID(entryID)
	if err != nil {
		return nil, err
	}
	f := &flowState{id: uuid.New().String(), source: SourceReauth, entryID: entry.ID, step: StepReauthConfirm}

	m.mu.Lock()
	m.flows[f.id] = f
	m.mu.Unlock()

	logf(ctx, "started reauth flow %s for entry %s", f.id, entry.ID)
	return &Result{Type: TypeForm, FlowID: f.id, StepID: StepReauthConfirm}, nil
}

// StartImport runs the legacy import flow to completion. No browser
// round-trip happens; the static token is validated against the service
// directly.
func (m *Manager) StartImport(ctx context.Context, data ImportData) (*Result, error) {
	validation, err := m.client.Validate(ctx, data.Token)
	if errors.Is(err, helix.ErrInvalidToken) {
		logf(ctx, "import rejected, token %s is invalid", maskToken(data.Token))
		if err := m.issues.Report(IssueImportInvalidToken, issues.SeverityError,
			"The imported Twitch configuration contains an invalid token. Remove the YAML configuration and set the integration up again."); err != nil {
			return nil, err
		}
		return &Result{Type: TypeAbort, Reason: ReasonInvalidToken}, nil
	}
	if err != nil {
		return nil, err
	}

	user, err := m.client.User(ctx, data.Token)
	if err != nil {
		return nil, err
	}

	existing, err := m.store.ByUniqueID(user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logf(ctx, "import skipped, account %s already configured", user.ID)
		if err := m.issues.Report(IssueImportAlreadyConfigured, issues.SeverityWarning,
			"The imported Twitch configuration duplicates an already configured account. Remove the YAML configuration."); err != nil {
			return nil, err
		}
		return &Result{Type: TypeAbort, Reason: ReasonAlreadyConfigured}, nil
	}

	// Static tokens cannot be refreshed; the refresh token stays empty.
	token := Token{
		AccessToken:  data.Token,
		RefreshToken: "",
		ExpiresAt:    time.Now().Add(time.Duration(validation.ExpiresIn) * time.Second),
		Scope:        strings.Join(validation.Scopes, " "),
	}
	entry := &models.Entry{
		ID:           uuid.New().String(),
		UniqueID:     user.ID,
		Title:        user.DisplayName,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
		Scopes:       token.Scope,
		Imported:     true,
		Channels:     entries.EncodeChannels(data.Channels),
	}
	if err := m.store.Create(entry); err != nil {
		return nil, err
	}

	logf(ctx, "imported account %s (%s)", user.ID, user.DisplayName)
	return &Result{
		Type:  TypeCreateEntry,
		Title: entry.Title,
		Entry: &CreatedEntry{
			UniqueID: entry.UniqueID,
			Title:    entry.Title,
			Data:     EntryData{Token: token},
		},
		Options: &Options{Channels: entries.DecodeChannels(entry.Channels)},
	}, nil
}

// Configure advances a pending flow: a confirmed reauth moves on to the
// authorization URL, and a flow whose callback already delivered a token is
// finished.
func (m *Manager) Configure(ctx context.Context, flowID string) (*Result, error) {
	m.mu.Lock()
	f, ok := m.flows[flowID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrFlowNotFound
	}

	if f.step == StepReauthConfirm {
		f.step = StepAuth
		return m.authResult(f), nil
	}
	if f.token == nil {
		return nil, ErrFlowNotReady
	}
	return m.finish(ctx, f)
}

// authResult builds the form result pointing the user at the authorization
// URL, with the signed state parameter bound to this flow.
func (m *Manager) authResult(f *flowState) *Result {
	redirectURI := m.redirectURI()
	cfg := m.oauthConfig(redirectURI)
	state := encodeState(f.id, redirectURI)
	return &Result{
		Type:   TypeForm,
		FlowID: f.id,
		StepID: StepAuth,
		URL:    cfg.AuthCodeURL(state),
	}
}

// deliverToken resumes the flow suspended on the authorization callback.
func (m *Manager) deliverToken(flowID string, token *Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[flowID]
	if !ok {
		return ErrFlowNotFound
	}
	f.token = token
	return nil
}

func (m *Manager) drop(flowID string) {
	m.mu.Lock()
	delete(m.flows, flowID)
	m.mu.Unlock()
}

// finish resolves the authenticated identity and writes the entry.
func (m *Manager) finish(ctx context.Context, f *flowState) (*Result, error) {
	user, err := m.client.User(ctx, f.token.AccessToken)
	if err != nil {
		return nil, err
	}

	if f.source == SourceReauth {
		return m.finishReauth(ctx, f, user)
	}

	existing, err := m.store.ByUniqueID(user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		m.drop(f.id)
		logf(ctx, "flow %s aborted, account %s already configured", f.id, user.ID)
		return &Result{Type: TypeAbort, FlowID: f.id, Reason: ReasonAlreadyConfigured}, nil
	}

	followed, err := m.client.FollowedChannels(ctx, f.token.AccessToken, user.ID)
	if err != nil {
		return nil, err
	}

	entry := &models.Entry{
		ID:           uuid.New().String(),
		UniqueID:     user.ID,
		Title:        user.DisplayName,
		AccessToken:  f.token.AccessToken,
		RefreshToken: f.token.RefreshToken,
		ExpiresAt:    f.token.ExpiresAt,
		Scopes:       f.token.Scope,
		Channels:     entries.EncodeChannels(followed),
	}
	if err := m.store.Create(entry); err != nil {
		return nil, err
	}

	m.drop(f.id)
	logf(ctx, "flow %s created entry for account %s (%s)", f.id, user.ID, user.DisplayName)
	return &Result{
		Type:   TypeCreateEntry,
		FlowID: f.id,
		Title:  entry.Title,
		Entry: &CreatedEntry{
			UniqueID: entry.UniqueID,
			Title:    entry.Title,
			Data:     EntryData{Token: *f.token},
		},
		Options: &Options{Channels: followed},
	}, nil
}

// finishReauth replaces the entry's token when the identity matches and
// leaves the entry untouched otherwise.
func (m *Manager) finishReauth(ctx context.Context, f *flowState, user *helix.User) (*Result, error) {
	entry, err := m.store.ByID(f.entryID)
	if err != nil {
		return nil, err
	}
	if entry.UniqueID != user.ID {
		m.drop(f.id)
		logf(ctx, "flow %s aborted, authenticated as %s but entry belongs to %s", f.id, user.ID, entry.UniqueID)
		return &Result{Type: TypeAbort, FlowID: f.id, Reason: ReasonWrongAccount}, nil
	}

	followed, err := m.client.FollowedChannels(ctx, f.token.AccessToken, user.ID)
	if err != nil {
		return nil, err
	}

	entry.AccessToken = f.token.AccessToken
	entry.RefreshToken = f.token.RefreshToken
	entry.ExpiresAt = f.token.ExpiresAt
	entry.Scopes = f.token.Scope
	// A successful reauth upgrades an imported entry to a regular one.
	entry.Imported = false
	entry.Channels = entries.EncodeChannels(entries.MergeChannels(entries.DecodeChannels(entry.Channels), followed))
	if err := m.store.Save(entry); err != nil {
		return nil, err
	}

	m.drop(f.id)
	logf(ctx, "flow %s refreshed credentials for account %s", f.id, user.ID)
	return &Result{Type: TypeAbort, FlowID: f.id, Reason: ReasonReauthSuccessful}, nil
}

func logf(ctx context.Context, format string, args ...interface{}) {
	if id := logging.GetRequestID(ctx); id != "" {
		log.Printf("[flow] (%s) "+format, append([]interface{}{id}, args...)...)
		return
	}
	log.Printf("[flow] "+format, args...)
}

func maskToken(t string) string {
	if len(t) < 8 {
		return "***"
	}
	return t[:2] + "..." + t[len(t)-2:]
}
