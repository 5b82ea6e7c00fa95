package location

import "errors"

var (
	// ErrRoomNotFound is returned when a room ID does not exist.
	ErrRoomNotFound = errors.New("location: room not found")

	// ErrInvalidName is returned when a room name is empty or too long.
	ErrInvalidName = errors.New("location: invalid name")

	// ErrInvalidRoom is returned when a room is missing required fields.
	ErrInvalidRoom = errors.New("location: invalid room")
)
