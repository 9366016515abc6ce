package google

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// oobRedirectURL is the out-of-band redirect used in console mode,
// where the user pastes the authorization code manually.
const oobRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// defaultFlowTimeout bounds how long the interactive flow waits for the
// user to complete consent.
const defaultFlowTimeout = 5 * time.Minute

// FlowConfig configures the interactive authorization-code flow.
// The zero value uses the built-in installed-app client, the Google
// OAuth2 endpoint, a loopback callback listener on an ephemeral port,
// stdin/stderr for console interaction and a five minute timeout.
type FlowConfig struct {
	ClientID     string
	ClientSecret string

	// Endpoint overrides the identity provider endpoint (tests).
	Endpoint oauth2.Endpoint

	// ListenAddr is the loopback address for the callback listener.
	ListenAddr string

	// Console switches to manual code entry instead of the loopback
	// listener (for machines without a local browser).
	Console bool

	// CodeInput is where console mode reads the pasted code from.
	CodeInput io.Reader

	// Prompt is where the consent URL and instructions are written.
	Prompt io.Writer

	// Timeout bounds the whole interactive flow.
	Timeout time.Duration
}

// Flow drives the interactive OAuth2 authorization-code exchange.
// It is the only blocking, human-in-the-loop operation in this package;
// cancelling the context aborts it cleanly without writing any state.
type Flow struct {
	config FlowConfig
	logger *slog.Logger
}

// NewFlow creates a flow with the given configuration.
func NewFlow(cfg FlowConfig, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{config: cfg, logger: logger}
}

// RequestNew runs the authorization-code flow for the given scopes and
// returns a freshly valid credential. It blocks until the user
// completes consent, the context is cancelled, or the timeout elapses.
func (f *Flow) RequestNew(ctx context.Context, scopes []string) (*Credential, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	timeout := f.config.Timeout
	if timeout <= 0 {
		timeout = defaultFlowTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conf := oauthConfig(f.config, scopes)

	var code string
	var err error
	if f.config.Console {
		code, err = f.consoleCode(ctx, conf)
	} else {
		code, err = f.loopbackCode(ctx, conf)
	}
	if err != nil {
		return nil, err
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, exchangeError(ctx, err)
	}

	f.logger.Info("authorization flow completed", "scopes", len(scopes))
	return credentialFromToken(tok, scopes, conf.ClientID), nil
}

// loopbackCode listens on a loopback port, sends the user to the
// consent URL and waits for the provider to redirect back with a code.
func (f *Flow) loopbackCode(ctx context.Context, conf *oauth2.Config) (string, error) {
	addr := f.config.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to open callback listener: %w", err)
	}

	conf.RedirectURL = "http://" + ln.Addr().String() + "/"
	state, err := randomState()
	if err != nil {
		ln.Close()
		return "", err
	}

	type callbackResult struct {
		code string
		err  error
	}
	resultCh := make(chan callbackResult, 1)
	deliver := func(res callbackResult) {
		select {
		case resultCh <- res:
		default:
		}
	}

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			fmt.Fprintln(w, "Authorization failed. You can close this window.")
			deliver(callbackResult{err: fmt.Errorf("%w: provider returned %q", ErrAuthorizationDenied, e)})
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("%w: state mismatch in callback", ErrAuthorizationDenied)})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("%w: callback carried no code", ErrAuthorizationDenied)})
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
		deliver(callbackResult{code: code})
	})}
	go srv.Serve(ln)
	defer srv.Close()

	f.promptConsent(conf.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case res := <-resultCh:
		// Graceful shutdown lets the confirmation page reach the browser
		// before the listener goes away.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return res.code, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrAuthorizationTimeout, ctx.Err())
	}
}

// consoleCode prints the consent URL and reads the authorization code
// from the configured input.
func (f *Flow) consoleCode(ctx context.Context, conf *oauth2.Config) (string, error) {
	conf.RedirectURL = oobRedirectURL
	state, err := randomState()
	if err != nil {
		return "", err
	}

	f.promptConsent(conf.AuthCodeURL(state, oauth2.AccessTypeOffline))
	fmt.Fprint(f.prompt(), "Enter authorization code: ")

	input := f.config.CodeInput
	if input == nil {
		input = os.Stdin
	}

	// When the flow times out this goroutine stays blocked in Scan:
	// a pending stdin read cannot be interrupted. It exits with the
	// process.
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(input)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				errCh <- fmt.Errorf("failed to read authorization code: %w", err)
				return
			}
			errCh <- fmt.Errorf("%w: no authorization code entered", ErrAuthorizationDenied)
			return
		}
		codeCh <- strings.TrimSpace(scanner.Text())
	}()

	select {
	case code := <-codeCh:
		if code == "" {
			return "", fmt.Errorf("%w: no authorization code entered", ErrAuthorizationDenied)
		}
		return code, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrAuthorizationTimeout, ctx.Err())
	}
}

func (f *Flow) promptConsent(url string) {
	fmt.Fprintf(f.prompt(), "Visit the following URL in your browser to authorize access:\n\n  %s\n\n", url)
}

func (f *Flow) prompt() io.Writer {
	if f.config.Prompt != nil {
		return f.config.Prompt
	}
	return os.Stderr
}

// exchangeError maps a failed code-for-token exchange onto the error
// taxonomy: a provider response means the grant was rejected, anything
// else is a transport problem.
func exchangeError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrAuthorizationTimeout, ctx.Err())
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
