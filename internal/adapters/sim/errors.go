package sim

import "errors"

// Sentinel kinds for simulated transports.
var (
	ErrScriptExhausted = errors.New("scan script exhausted")
)
