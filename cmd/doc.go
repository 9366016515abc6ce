// Package cmd implements the gmailkit command line interface.
//
// The auth command runs the interactive authorization flow and persists
// the resulting credential. The search, get, send and signature
// commands use that credential against the Gmail API, refreshing the
// access token silently when needed. The serve command exposes the same
// operations as MCP tools over stdio.
package cmd
