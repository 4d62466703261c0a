package proximity

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrRecoveryExhausted reports that a recovery turn hit its iteration cap
	// before the governing sectors cleared.
	ErrRecoveryExhausted = errors.New("recovery exhausted")
)
