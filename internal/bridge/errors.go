package bridge

import "errors"

// Domain errors for the bridge package.
var (
	// ErrUnknownCommand is returned when a command message names a command
	// the bridge does not recognise. Acknowledged with code INVALID_COMMAND.
	ErrUnknownCommand = errors.New("bridge: unknown command")
)
