package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teemow/gmailkit/internal/gmail"
	"github.com/teemow/gmailkit/internal/google"
	"github.com/teemow/gmailkit/internal/instrumentation"
)

// resolveFlowConfig fills in the OAuth client identity from the
// environment where flags left it empty. GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET override the built-in installed-app client.
func resolveFlowConfig(flow google.FlowConfig) google.FlowConfig {
	if flow.ClientID == "" {
		flow.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if flow.ClientSecret == "" {
		flow.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	return flow
}

// newManager builds a credential manager from the given flow settings
// plus the environment. Every command, including serve, goes through
// here so they all resolve the same OAuth client identity.
func newManager(flow google.FlowConfig, metrics *instrumentation.Metrics) *google.Manager {
	return google.NewManager(google.ManagerConfig{
		Flow:    resolveFlowConfig(flow),
		Logger:  slog.Default(),
		Metrics: metrics,
	})
}

// gmailClient loads the persisted credential and builds a Gmail client
// on top of it. The returned cleanup persists the credential again, so
// tokens rotated during the command survive the process.
func gmailClient(ctx context.Context) (*gmail.Client, func(), error) {
	manager := newManager(google.FlowConfig{}, nil)

	cred, err := manager.Load(credentialsPath, google.DefaultScopes)
	if err != nil {
		return nil, nil, err
	}

	client, err := gmail.NewClient(ctx, manager.TokenSource(ctx, cred))
	if err != nil {
		return nil, nil, err
	}
	client.SetLogger(slog.Default())

	cleanup := func() {
		if err := manager.Save(cred, credentialsPath); err != nil {
			slog.Warn("failed to persist refreshed credential", "error", err)
		}
	}
	return client, cleanup, nil
}

// commandContext returns a context cancelled by SIGINT/SIGTERM, with an
// overall deadline when timeout is positive.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}
