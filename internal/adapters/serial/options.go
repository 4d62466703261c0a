// Package serial carries scans and speed commands over serial lines.
//
// The scanner sends one line per revolution with 360 comma separated ranges
// in meters. The drive controller accepts "<linear>,<angular>\n".
package serial

import (
	"fmt"
	"strings"

	bugst "go.bug.st/serial"
)

// PortOptions describes the serial connection parameters.
type PortOptions struct {
	BaudRate int    `koanf:"baud_rate"`
	DataBits int    `koanf:"data_bits"`
	StopBits int    `koanf:"stop_bits"`
	Parity   string `koanf:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("%w: data bits %d, must be between 5 and 8", ErrInvalidPortOptions, opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("%w: stop bits %d, supported values are 1 or 2", ErrInvalidPortOptions, opts.StopBits)
	}

	switch strings.TrimSpace(strings.ToUpper(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("%w: parity %q, expected N, E, or O", ErrInvalidPortOptions, opts.Parity)
	}

	return opts, nil
}

// Mode converts the options into the structure bugst.Open expects.
func (o PortOptions) Mode() (*bugst.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &bugst.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: bugst.OneStopBit,
		Parity:   bugst.NoParity,
	}
	if opts.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = bugst.EvenParity
	case "O":
		mode.Parity = bugst.OddParity
	}
	return mode, nil
}

// Open opens the device at path with opts.
func Open(path string, opts PortOptions) (bugst.Port, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}
	port, err := bugst.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return port, nil
}
