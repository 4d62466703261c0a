package model

import "errors"

// ErrMalformedScan marks a scan payload that cannot be turned into a RawScan.
var ErrMalformedScan = errors.New("malformed scan")
