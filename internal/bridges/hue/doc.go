// Package hue switches Philips Hue groups for room lighting.
//
// A room may name a Hue group; when the room's lights are switched the
// group's action state is set through the bridge's REST API.
//
//	hue:
//	  enabled: true
//	  host: "192.168.1.20"
//	  user: "hub-api-user"
//	  timeout: 5          # seconds per bridge call
package hue
