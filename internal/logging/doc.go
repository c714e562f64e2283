// Package logging provides file-based logging with rotation for grepmcp.
// Server and watch processes write structured JSON logs to ~/.grepmcp/logs/
// where the grepmcp-logs viewer can tail and follow them.
//
// In MCP mode nothing may be written to stdout or stderr, so logs go to
// file only.
package logging
