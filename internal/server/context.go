package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/gmailkit/internal/gmail"
	"github.com/teemow/gmailkit/internal/google"
	"github.com/teemow/gmailkit/internal/instrumentation"
)

// ContextConfig configures a ServerContext.
type ContextConfig struct {
	// Manager handles credential loading and refresh.
	Manager *google.Manager

	// CredentialsPath is where the persisted credential lives.
	CredentialsPath string

	// Scopes are the OAuth scopes tool handlers need.
	Scopes []string

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// ServerContext holds the state shared by all MCP tool handlers. The
// Gmail client is created on first use so that the server starts even
// when no credential exists yet; handlers surface the authorization
// error to the caller instead.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	manager         *google.Manager
	credentialsPath string
	scopes          []string
	logger          *slog.Logger
	metrics         *instrumentation.Metrics

	mu       sync.Mutex
	client   *gmail.Client
	shutdown bool
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, config ContextConfig) (*ServerContext, error) {
	if config.Manager == nil {
		return nil, fmt.Errorf("credential manager is required")
	}
	if config.CredentialsPath == "" {
		return nil, fmt.Errorf("credentials path is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		manager:         config.Manager,
		credentialsPath: config.CredentialsPath,
		scopes:          config.Scopes,
		logger:          config.Logger,
		metrics:         config.Metrics,
	}, nil
}

// Context returns the server's shutdown-aware context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// GmailClient returns the shared Gmail client, creating it on first
// use from the persisted credential.
func (sc *ServerContext) GmailClient(ctx context.Context) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.client != nil {
		return sc.client, nil
	}

	cred, err := sc.manager.Load(sc.credentialsPath, sc.scopes)
	if err != nil {
		return nil, fmt.Errorf("no usable credential: %w. Run 'gmailkit auth' to authorize", err)
	}

	client, err := gmail.NewClient(ctx, sc.manager.TokenSource(sc.ctx, cred))
	if err != nil {
		return nil, err
	}
	client.SetLogger(sc.logger)
	client.SetMetrics(sc.metrics)

	sc.client = client
	return client, nil
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call twice.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}
