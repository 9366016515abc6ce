// Package server holds the shared state for the MCP server: the
// credential manager, the lazily created Gmail client, and the
// dedicated Prometheus metrics listener.
package server
