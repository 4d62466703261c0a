package mqtt

import "errors"

// Sentinel kinds for MQTT transport errors.
var (
	ErrNotConnected = errors.New("mqtt: not connected")
	ErrClosed       = errors.New("mqtt: source closed")
	ErrTimeout      = errors.New("mqtt: timed out")
)
