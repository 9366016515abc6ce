package google

import (
	"time"

	"golang.org/x/oauth2"
)

// expiryLeeway is subtracted from the recorded expiry when deciding
// whether an access token is still usable, so a token that expires
// mid-request is treated as already expired.
const expiryLeeway = 30 * time.Second

// State describes where a credential is in its lifecycle.
type State int

const (
	// StateValid means the access token is present and unexpired.
	StateValid State = iota

	// StateRefreshable means the access token is expired or missing but
	// a refresh token is present, so a silent refresh may succeed.
	StateRefreshable

	// StateExpiredTerminal means neither token is usable. This state is
	// absorbing: only a new interactive flow produces a way out.
	StateExpiredTerminal
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateRefreshable:
		return "refreshable"
	case StateExpiredTerminal:
		return "expired-terminal"
	default:
		return "unknown"
	}
}

// Credential is an OAuth2 grant for Google APIs: the token pair plus
// the metadata needed to reuse, refresh, or persist it.
//
// Scopes are fixed at creation time. EnsureValid mutates AccessToken,
// Expiry and (on rotation) RefreshToken in place; nothing else changes
// after construction.
type Credential struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	Scopes       []string
	ClientID     string
}

// State derives the lifecycle state from the token material. A zero
// Expiry means the access token does not expire.
func (c *Credential) State() State {
	if c.AccessToken != "" && !c.expired() {
		return StateValid
	}
	if c.RefreshToken != "" {
		return StateRefreshable
	}
	return StateExpiredTerminal
}

// Valid reports whether the access token can be used right now.
func (c *Credential) Valid() bool {
	return c.State() == StateValid
}

func (c *Credential) expired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().Add(expiryLeeway).After(c.Expiry)
}

// Token converts the credential to an oauth2 token for use with the
// x/oauth2 transport machinery.
func (c *Credential) Token() *oauth2.Token {
	typ := c.TokenType
	if typ == "" {
		typ = "Bearer"
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    typ,
		Expiry:       c.Expiry,
	}
}

// applyToken copies the refreshed token material into the credential.
// The refresh token is only replaced when the provider rotated it.
func (c *Credential) applyToken(tok *oauth2.Token) {
	c.AccessToken = tok.AccessToken
	c.Expiry = tok.Expiry
	if tok.TokenType != "" {
		c.TokenType = tok.TokenType
	}
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
}

func credentialFromToken(tok *oauth2.Token, scopes []string, clientID string) *Credential {
	c := &Credential{
		Scopes:   append([]string(nil), scopes...),
		ClientID: clientID,
	}
	c.applyToken(tok)
	return c
}
