package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider is a minimal OAuth2 token endpoint for tests. It counts
// token requests and can be switched into rejection mode.
type fakeProvider struct {
	srv          *httptest.Server
	tokenCalls   atomic.Int64
	rejectGrants atomic.Bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		p.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if p.rejectGrants.Load() {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "provider-access-token",
			"refresh_token": "provider-refresh-token",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  p.srv.URL + "/auth",
		TokenURL: p.srv.URL + "/token",
	}
}

func newTestManager(t *testing.T, flow FlowConfig) *Manager {
	t.Helper()
	return NewManager(ManagerConfig{Flow: flow})
}

func TestLoadMissingFile(t *testing.T) {
	m := newTestManager(t, FlowConfig{})

	_, err := m.Load(filepath.Join(t.TempDir(), "nonexistent"), DefaultScopes)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestLoadScopeMismatch(t *testing.T) {
	m := newTestManager(t, FlowConfig{})
	path := filepath.Join(t.TempDir(), "credentials.json")

	cred := &Credential{
		AccessToken: "at",
		Scopes:      []string{"scopeA"},
	}
	require.NoError(t, m.Save(cred, path))

	_, err := m.Load(path, []string{"scopeA", "scopeB"})
	if !errors.Is(err, ErrScopeMismatch) {
		t.Errorf("Load() error = %v, want ErrScopeMismatch", err)
	}

	// The reverse direction is fine: persisted scopes may be wider.
	got, err := m.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"scopeA"}, got.Scopes)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := newTestManager(t, FlowConfig{})
	path := filepath.Join(t.TempDir(), "credentials.json")

	cred := &Credential{
		AccessToken:  "at",
		RefreshToken: "rt",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		Scopes:       []string{"scopeA", "scopeB"},
		ClientID:     "client-1",
	}

	require.NoError(t, m.Save(cred, path))

	got, err := m.Load(path, cred.Scopes)
	require.NoError(t, err)
	assert.Equal(t, cred, got)
}

func TestEnsureValidNoopOnValidCredential(t *testing.T) {
	provider := newFakeProvider(t)
	m := newTestManager(t, FlowConfig{Endpoint: provider.endpoint()})

	cred := &Credential{
		AccessToken: "at",
		Expiry:      time.Now().Add(time.Hour),
	}

	// Two calls in immediate succession must hit the network zero times.
	for i := 0; i < 2; i++ {
		got, err := m.EnsureValid(context.Background(), cred)
		require.NoError(t, err)
		assert.Same(t, cred, got)
	}
	assert.EqualValues(t, 0, provider.tokenCalls.Load())
}

func TestEnsureValidRefreshesExpiredCredential(t *testing.T) {
	provider := newFakeProvider(t)
	m := newTestManager(t, FlowConfig{Endpoint: provider.endpoint()})

	cred := &Credential{
		AccessToken:  "stale",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Hour),
		Scopes:       DefaultScopes,
	}

	got, err := m.EnsureValid(context.Background(), cred)
	require.NoError(t, err)

	assert.Same(t, cred, got)
	assert.EqualValues(t, 1, provider.tokenCalls.Load(), "exactly one refresh attempt")
	assert.Equal(t, "provider-access-token", cred.AccessToken)
	assert.Equal(t, StateValid, cred.State())
}

func TestEnsureValidRefreshRejected(t *testing.T) {
	provider := newFakeProvider(t)
	provider.rejectGrants.Store(true)
	m := newTestManager(t, FlowConfig{Endpoint: provider.endpoint()})

	cred := &Credential{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	}

	_, err := m.EnsureValid(context.Background(), cred)
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("EnsureValid() error = %v, want ErrRefreshFailed", err)
	}

	assert.EqualValues(t, 1, provider.tokenCalls.Load())
	assert.Equal(t, StateExpiredTerminal, cred.State(), "rejected refresh is terminal")

	// The terminal state is absorbing.
	_, err = m.EnsureValid(context.Background(), cred)
	if !errors.Is(err, ErrReauthorizationRequired) {
		t.Errorf("EnsureValid() on terminal credential error = %v, want ErrReauthorizationRequired", err)
	}
}

func TestEnsureValidProviderUnreachable(t *testing.T) {
	// Nothing listens on this port; the dial fails at transport level.
	m := newTestManager(t, FlowConfig{Endpoint: oauth2.Endpoint{
		AuthURL:  "http://127.0.0.1:1/auth",
		TokenURL: "http://127.0.0.1:1/token",
	}})

	cred := &Credential{
		AccessToken:  "stale",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Hour),
	}

	_, err := m.EnsureValid(context.Background(), cred)
	if !errors.Is(err, ErrProviderUnreachable) {
		t.Fatalf("EnsureValid() error = %v, want ErrProviderUnreachable", err)
	}

	// Transport failures leave the credential untouched so the caller
	// may retry once the network recovers.
	assert.Equal(t, "rt", cred.RefreshToken)
	assert.Equal(t, StateRefreshable, cred.State())
}

func TestEnsureValidReauthorizationRequired(t *testing.T) {
	m := newTestManager(t, FlowConfig{})

	cred := &Credential{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	}

	_, err := m.EnsureValid(context.Background(), cred)
	if !errors.Is(err, ErrReauthorizationRequired) {
		t.Errorf("EnsureValid() error = %v, want ErrReauthorizationRequired", err)
	}
}

func TestEnsureValidNilCredential(t *testing.T) {
	m := newTestManager(t, FlowConfig{})

	if _, err := m.EnsureValid(context.Background(), nil); err == nil {
		t.Error("EnsureValid(nil) should fail")
	}
}

func TestTokenSourceAttachesBearerToken(t *testing.T) {
	provider := newFakeProvider(t)
	m := newTestManager(t, FlowConfig{Endpoint: provider.endpoint()})

	cred := &Credential{
		AccessToken:  "stale",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Hour),
	}

	tok, err := m.TokenSource(context.Background(), cred).Token()
	require.NoError(t, err)
	assert.Equal(t, "provider-access-token", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
}

func TestNewSaveLoadEnsureScenario(t *testing.T) {
	// Full lifecycle against a fake provider: interactive authorization
	// in console mode, persist, simulated restart (fresh manager),
	// reload, ensure.
	provider := newFakeProvider(t)
	scopes := []string{"https://www.googleapis.com/auth/gmail.send"}
	path := filepath.Join(t.TempDir(), "credentials.json")

	m := newTestManager(t, FlowConfig{
		Endpoint:  provider.endpoint(),
		Console:   true,
		CodeInput: strings.NewReader("pasted-auth-code\n"),
		Prompt:    io.Discard,
		Timeout:   5 * time.Second,
	})

	cred, err := m.New(context.Background(), scopes)
	require.NoError(t, err)
	assert.Equal(t, scopes, cred.Scopes)
	assert.NotEmpty(t, cred.AccessToken)
	assert.Equal(t, StateValid, cred.State())

	require.NoError(t, m.Save(cred, path))

	restarted := newTestManager(t, FlowConfig{Endpoint: provider.endpoint()})
	loaded, err := restarted.Load(path, scopes)
	require.NoError(t, err)
	assert.Equal(t, cred.AccessToken, loaded.AccessToken)
	assert.Equal(t, cred.RefreshToken, loaded.RefreshToken)
	assert.Equal(t, cred.Scopes, loaded.Scopes)

	calls := provider.tokenCalls.Load()
	got, err := restarted.EnsureValid(context.Background(), loaded)
	require.NoError(t, err)
	assert.Same(t, loaded, got)
	assert.EqualValues(t, calls, provider.tokenCalls.Load(), "valid credential must not hit the network")
}
