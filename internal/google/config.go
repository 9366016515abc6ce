package google

import (
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// Default installed-app client of the hosting GCP project. Installed-app
// client secrets are not confidential (RFC 8252, section 8.5); callers
// can still bring their own client via FlowConfig or the environment.
const (
	defaultClientID     = "629905107772-2rq0b441g8k6v428ul0hvhlp0p8pq09a.apps.googleusercontent.com"
	defaultClientSecret = "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"
)

// oauthConfig builds the x/oauth2 configuration for the given flow
// settings and scope set. The redirect URL is filled in by the flow once
// it knows where it is listening.
func oauthConfig(cfg FlowConfig, scopes []string) *oauth2.Config {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}
	clientSecret := cfg.ClientSecret
	if clientSecret == "" {
		clientSecret = defaultClientSecret
	}
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = googleoauth.Endpoint
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}
