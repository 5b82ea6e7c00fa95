package hue

import "errors"

var (
	// ErrInvalidGroup is returned for group ids that are not bridge group numbers.
	ErrInvalidGroup = errors.New("hue: invalid group id")

	// ErrBridgeRejected is returned when the bridge answers with error entries.
	ErrBridgeRejected = errors.New("hue: bridge rejected request")
)
