package proxy

import "errors"

var (
	// ErrUnsupportedDeviceType is returned for events from device types the hub has no normalizer for.
	ErrUnsupportedDeviceType = errors.New("proxy: unsupported device type")

	// ErrInvalidEvent is returned for malformed proxy events.
	ErrInvalidEvent = errors.New("proxy: invalid event")
)
