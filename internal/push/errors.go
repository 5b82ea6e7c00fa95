package push

import "errors"

var (
	// ErrMixedBuildings is returned when a batch holds events for more than
	// one building. It indicates a programming fault in the unit of work.
	ErrMixedBuildings = errors.New("push: batch spans multiple buildings")

	// ErrChannelForbidden is returned when an identity may not address a channel.
	ErrChannelForbidden = errors.New("push: channel forbidden")

	// ErrInvalidChannel is returned for channel names outside the private-<building> scheme.
	ErrInvalidChannel = errors.New("push: invalid channel name")
)
