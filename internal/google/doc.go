// Package google manages the OAuth2 credential lifecycle for Google APIs.
//
// The package is built around three pieces:
//   - Store: file-backed persistence of a single token record
//   - Flow: the interactive authorization-code exchange that mints a
//     brand-new credential
//   - Manager: composes both and decides whether a credential can be
//     reused as-is, refreshed silently, or must be re-requested
//
// A Credential is always passed explicitly; there is no ambient
// "current credential" state anywhere in this package.
package google
