// Package api implements the hub's HTTP API, WebSocket push hub and SSE
// stream.
//
// This package provides:
//   - REST endpoints for devices, rooms, account links and the driver list
//   - command endpoints that run device, kind and room commands
//   - HTTP ingest for proxy notifications
//   - WebSocket and SSE delivery of private-<building> push channels
//   - channel authorization for hosted push clients
//
// # Units of work
//
// Every mutating request runs as one unit of work for the request's
// building (X-Building-ID, or the person's first building). Push events
// raised while handling it are flushed to the building's channel after the
// handler succeeds and dropped when it fails.
//
// # Security
//
// Identities arrive as bearer JWTs signed with security.jwt.secret. The
// person is loaded or created from the token subject. WebSocket connections
// authenticate with single-use tickets so the token never appears in a URL,
// and every channel subscription passes the same building check as
// channel_auth.
package api
