// Package logging provides slog helpers shared across the codebase:
// consistent attribute keys, nil-safe error attributes and masking for
// secret material so token contents never reach the logs.
package logging
