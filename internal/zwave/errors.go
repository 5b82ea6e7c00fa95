package zwave

import "errors"

var (
	// ErrInvalidNotification is returned for malformed mesh notifications.
	ErrInvalidNotification = errors.New("zwave: invalid notification")

	// ErrNotZWave is returned when a notification targets a non Z-Wave device.
	ErrNotZWave = errors.New("zwave: device is not a zwave device")
)
