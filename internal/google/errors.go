package google

import "errors"

// Credential lifecycle errors. None of these are retried internally;
// each one is surfaced to the caller as a distinct, actionable failure.
var (
	// ErrNotFound indicates no token record exists at the given path
	ErrNotFound = errors.New("token record not found")

	// ErrCorruptRecord indicates the token record could not be parsed
	// or is missing required fields
	ErrCorruptRecord = errors.New("token record is corrupt")

	// ErrScopeMismatch indicates the persisted scopes do not cover the
	// requested scopes; the credential must be re-requested with the
	// wider scope set
	ErrScopeMismatch = errors.New("persisted scopes do not cover requested scopes")

	// ErrAuthorizationDenied indicates the user or the identity provider
	// rejected the interactive authorization request
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrAuthorizationTimeout indicates the interactive flow was
	// cancelled or did not complete within the configured bound
	ErrAuthorizationTimeout = errors.New("authorization timed out")

	// ErrProviderUnreachable indicates a network-level failure talking
	// to the identity provider. Unlike the other errors it is a
	// candidate for caller-side retry with backoff.
	ErrProviderUnreachable = errors.New("identity provider unreachable")

	// ErrRefreshFailed indicates the provider answered the refresh
	// request and rejected the grant (e.g. a revoked refresh token)
	ErrRefreshFailed = errors.New("token refresh rejected")

	// ErrReauthorizationRequired indicates the credential is expired and
	// carries no refresh token; only a new interactive flow can help
	ErrReauthorizationRequired = errors.New("credential expired, reauthorization required")
)
