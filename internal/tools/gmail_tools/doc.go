// Package gmail_tools registers the Gmail MCP tools: sending mail,
// searching messages, reading single messages, and fetching the
// configured signature. Handlers obtain the shared Gmail client from
// the server context and report failures as tool results rather than
// protocol errors.
package gmail_tools
