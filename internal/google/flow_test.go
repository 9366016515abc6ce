package google

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// syncBuffer is a goroutine-safe writer for capturing the consent
// prompt while the flow runs in the background.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// consentURL waits for the flow to print its consent URL and returns
// the embedded redirect URI and state parameter.
func consentURL(t *testing.T, out *syncBuffer) (redirect, state string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, line := range strings.Split(out.String(), "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "http") {
				continue
			}
			u, err := url.Parse(line)
			require.NoError(t, err)
			q := u.Query()
			if q.Get("redirect_uri") != "" {
				return q.Get("redirect_uri"), q.Get("state")
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("flow never printed a consent URL")
	return "", ""
}

type flowResult struct {
	cred *Credential
	err  error
}

func startLoopbackFlow(t *testing.T, cfg FlowConfig, scopes []string) (*syncBuffer, chan flowResult) {
	t.Helper()
	out := &syncBuffer{}
	cfg.Prompt = out
	flow := NewFlow(cfg, nil)

	resultCh := make(chan flowResult, 1)
	go func() {
		cred, err := flow.RequestNew(context.Background(), scopes)
		resultCh <- flowResult{cred: cred, err: err}
	}()
	return out, resultCh
}

func TestLoopbackFlowSuccess(t *testing.T) {
	provider := newFakeProvider(t)
	out, resultCh := startLoopbackFlow(t, FlowConfig{
		Endpoint: provider.endpoint(),
		Timeout:  5 * time.Second,
	}, []string{"scopeA"})

	redirect, state := consentURL(t, out)
	require.NotEmpty(t, state, "loopback flow must carry a state parameter")

	resp, err := http.Get(fmt.Sprintf("%s?state=%s&code=auth-code", redirect, state))
	require.NoError(t, err)
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(page), "Authorization complete", "browser must receive the confirmation page")

	res := <-resultCh
	require.NoError(t, res.err)
	assert.Equal(t, []string{"scopeA"}, res.cred.Scopes)
	assert.Equal(t, "provider-access-token", res.cred.AccessToken)
	assert.Equal(t, StateValid, res.cred.State())
}

func TestLoopbackFlowDenied(t *testing.T) {
	provider := newFakeProvider(t)
	out, resultCh := startLoopbackFlow(t, FlowConfig{
		Endpoint: provider.endpoint(),
		Timeout:  5 * time.Second,
	}, nil)

	redirect, _ := consentURL(t, out)

	resp, err := http.Get(redirect + "?error=access_denied")
	require.NoError(t, err)
	resp.Body.Close()

	res := <-resultCh
	if !errors.Is(res.err, ErrAuthorizationDenied) {
		t.Errorf("RequestNew() error = %v, want ErrAuthorizationDenied", res.err)
	}
}

func TestLoopbackFlowStateMismatch(t *testing.T) {
	provider := newFakeProvider(t)
	out, resultCh := startLoopbackFlow(t, FlowConfig{
		Endpoint: provider.endpoint(),
		Timeout:  5 * time.Second,
	}, nil)

	redirect, _ := consentURL(t, out)

	resp, err := http.Get(redirect + "?state=forged&code=auth-code")
	require.NoError(t, err)
	resp.Body.Close()

	res := <-resultCh
	if !errors.Is(res.err, ErrAuthorizationDenied) {
		t.Errorf("RequestNew() error = %v, want ErrAuthorizationDenied", res.err)
	}
}

func TestLoopbackFlowTimeout(t *testing.T) {
	_, resultCh := startLoopbackFlow(t, FlowConfig{
		Timeout: 50 * time.Millisecond,
	}, nil)

	select {
	case res := <-resultCh:
		if !errors.Is(res.err, ErrAuthorizationTimeout) {
			t.Errorf("RequestNew() error = %v, want ErrAuthorizationTimeout", res.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("flow did not time out")
	}
}

func TestConsoleFlowSuccess(t *testing.T) {
	provider := newFakeProvider(t)
	flow := NewFlow(FlowConfig{
		Endpoint:  provider.endpoint(),
		Console:   true,
		CodeInput: strings.NewReader("pasted-code\n"),
		Prompt:    &syncBuffer{},
		Timeout:   5 * time.Second,
	}, nil)

	cred, err := flow.RequestNew(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultScopes, cred.Scopes, "empty scope request falls back to defaults")
	assert.Equal(t, StateValid, cred.State())
}

func TestConsoleFlowEmptyCode(t *testing.T) {
	flow := NewFlow(FlowConfig{
		Console:   true,
		CodeInput: strings.NewReader("\n"),
		Prompt:    &syncBuffer{},
		Timeout:   5 * time.Second,
	}, nil)

	_, err := flow.RequestNew(context.Background(), nil)
	if !errors.Is(err, ErrAuthorizationDenied) {
		t.Errorf("RequestNew() error = %v, want ErrAuthorizationDenied", err)
	}
}

func TestExchangeErrorMapping(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want error
	}{
		{"cancelled context", cancelled, errors.New("whatever"), ErrAuthorizationTimeout},
		{"provider rejection", context.Background(), &oauth2.RetrieveError{}, ErrAuthorizationDenied},
		{"transport failure", context.Background(), errors.New("dial tcp: connection refused"), ErrProviderUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exchangeError(tt.ctx, tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("exchangeError() = %v, want %v", got, tt.want)
			}
		})
	}
}
