package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/teemow/gmailkit/internal/instrumentation"
	"github.com/teemow/gmailkit/internal/logging"
)

// ManagerConfig configures a credential manager.
type ManagerConfig struct {
	// Flow configures the interactive authorization flow and the OAuth2
	// client identity used for refreshes.
	Flow FlowConfig

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Manager produces credentials guaranteed valid for immediate use,
// hiding whether that required reuse, a silent refresh, or a fresh
// interactive authorization.
//
// All operations are synchronous and take explicit Credential values;
// the manager holds no credential state of its own.
type Manager struct {
	store   *Store
	flow    *Flow
	config  FlowConfig
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewManager creates a manager with the given configuration.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:   NewStore(logger),
		flow:    NewFlow(cfg.Flow, logger),
		config:  cfg.Flow,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// Load reads the token record at path and returns the credential it
// describes. The credential may be expired but still refreshable; call
// EnsureValid before using it.
//
// Returns ErrNotFound if no record exists, ErrCorruptRecord if it does
// not parse, and ErrScopeMismatch if the persisted scopes do not cover
// the requested ones.
func (m *Manager) Load(path string, scopes []string) (*Credential, error) {
	rec, err := m.store.Read(path)
	if err != nil {
		return nil, err
	}

	if !scopesCover(rec.Scopes, scopes) {
		return nil, fmt.Errorf("%w: have %v, need %v", ErrScopeMismatch, rec.Scopes, scopes)
	}

	cred := &Credential{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
		Expiry:       rec.Expiry,
		Scopes:       append([]string(nil), rec.Scopes...),
		ClientID:     rec.ClientID,
	}

	m.logger.Debug("loaded credential",
		logging.Operation("load"),
		logging.Path(path),
		logging.State(cred.State()))
	return cred, nil
}

// New runs the interactive authorization flow for the given scopes and
// returns a freshly valid credential. It blocks until the user grants
// or denies consent, the context is cancelled, or the flow times out.
func (m *Manager) New(ctx context.Context, scopes []string) (*Credential, error) {
	mode := "loopback"
	if m.config.Console {
		mode = "console"
	}

	cred, err := m.flow.RequestNew(ctx, scopes)
	if err != nil {
		m.metrics.RecordAuthFlow(ctx, mode, instrumentation.ResultError)
		m.logger.Warn("authorization flow failed",
			logging.Operation("new"),
			logging.Err(err))
		return nil, err
	}

	m.metrics.RecordAuthFlow(ctx, mode, instrumentation.ResultSuccess)
	m.logger.Info("obtained new credential",
		logging.Operation("new"),
		"scopes", cred.Scopes,
		"access_token", logging.SanitizeToken(cred.AccessToken))
	return cred, nil
}

// EnsureValid returns a credential whose access token is usable right
// now. A valid credential is returned unchanged with no I/O. A
// refreshable one triggers exactly one refresh exchange, mutating the
// credential in place on success. An expired-terminal credential fails
// with ErrReauthorizationRequired; only New can replace it.
func (m *Manager) EnsureValid(ctx context.Context, cred *Credential) (*Credential, error) {
	if cred == nil {
		return nil, fmt.Errorf("credential cannot be nil")
	}

	switch cred.State() {
	case StateValid:
		return cred, nil
	case StateRefreshable:
		if err := m.refresh(ctx, cred); err != nil {
			return nil, err
		}
		return cred, nil
	default:
		return nil, fmt.Errorf("%w: access token expired and no refresh token present", ErrReauthorizationRequired)
	}
}

// refresh performs one refresh-token grant against the identity
// provider. A provider-side rejection clears the refresh token, moving
// the credential to its terminal state; a transport failure leaves the
// credential untouched so the caller may retry.
func (m *Manager) refresh(ctx context.Context, cred *Credential) error {
	conf := oauthConfig(m.config, cred.Scopes)
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})

	tok, err := ts.Token()
	if err != nil {
		m.metrics.RecordTokenRefresh(ctx, instrumentation.ResultError)

		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			cred.RefreshToken = ""
			m.logger.Warn("token refresh rejected by provider",
				logging.Operation("refresh"),
				logging.Err(err))
			return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		}

		m.logger.Warn("token refresh failed to reach provider",
			logging.Operation("refresh"),
			logging.Err(err))
		return fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}

	cred.applyToken(tok)
	m.metrics.RecordTokenRefresh(ctx, instrumentation.ResultSuccess)
	m.logger.Debug("refreshed access token",
		logging.Operation("refresh"),
		"expiry", tok.Expiry,
		"access_token", logging.SanitizeToken(tok.AccessToken))
	return nil
}

// Save serializes the credential to the token record at path,
// overwriting any existing record. The caller is responsible for the
// security of the chosen location.
func (m *Manager) Save(cred *Credential, path string) error {
	if cred == nil {
		return fmt.Errorf("credential cannot be nil")
	}

	rec := &TokenRecord{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Expiry:       cred.Expiry,
		Scopes:       cred.Scopes,
		ClientID:     cred.ClientID,
	}
	if err := m.store.Write(rec, path); err != nil {
		return err
	}

	m.logger.Debug("saved credential",
		logging.Operation("save"),
		logging.Path(path))
	return nil
}

// TokenSource adapts the manager to the oauth2.TokenSource interface.
// Every token fetch goes through EnsureValid, so API clients built on
// this source always attach a usable bearer token and pick up silent
// refreshes automatically.
func (m *Manager) TokenSource(ctx context.Context, cred *Credential) oauth2.TokenSource {
	return &managedTokenSource{ctx: ctx, manager: m, cred: cred}
}

type managedTokenSource struct {
	ctx     context.Context
	manager *Manager
	cred    *Credential
}

func (ts *managedTokenSource) Token() (*oauth2.Token, error) {
	cred, err := ts.manager.EnsureValid(ts.ctx, ts.cred)
	if err != nil {
		return nil, err
	}
	return cred.Token(), nil
}
