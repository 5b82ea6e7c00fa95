// Package logging provides structured logging for the hub.
//
// It wraps log/slog: JSON output by default, text for development, and
// service/version fields on every entry. Components receive a child logger
// via Component("name").
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log OAuth tokens, client secrets or channel signatures.
package logging
