package command

import "errors"

var (
	// ErrUnknownCommand is returned when a name is not a registered command
	// of the target, including names registered only for internal use.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrInvalidArgs is returned when command arguments are malformed.
	ErrInvalidArgs = errors.New("command: invalid arguments")
)
