package serial

import "errors"

// Sentinel kinds for serial transport errors.
var (
	ErrInvalidPortOptions = errors.New("serial: invalid port options")
	ErrClosed             = errors.New("serial: port closed")
)
