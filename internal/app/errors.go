package service

import "errors"

// Sentinel kinds for controller errors. Transport failures are wrapped in
// ErrScanSource or ErrCommandSink so callers can tell them apart.
var (
	ErrScanSource     = errors.New("scan source failed")
	ErrCommandSink    = errors.New("command sink failed")
	ErrAlreadyRunning = errors.New("controller already running")
)
