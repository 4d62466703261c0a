package model

import (
	"fmt"
	"time"
)

// Direction tags which way a command turns the robot.
type Direction int

// Turn directions. Angular velocity is positive for DirectionLeft and negative for DirectionRight.
const (
	DirectionStraight Direction = iota
	DirectionLeft
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionStraight:
		return "STRAIGHT"
	case DirectionLeft:
		return "LEFT"
	case DirectionRight:
		return "RIGHT"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Sign returns +1 for left, -1 for right and 0 for straight.
func (d Direction) Sign() float64 {
	switch d {
	case DirectionLeft:
		return 1
	case DirectionRight:
		return -1
	default:
		return 0
	}
}

// SpeedCommand is a velocity command for the drivetrain.
type SpeedCommand struct {
	Direction Direction `json:"direction"`
	Linear    float64   `json:"linear"`  // m/s
	Angular   float64   `json:"angular"` // rad/s, signed by Direction
}

// NewSpeedCommand builds a command from unsigned speeds, applying the direction's sign
// to the angular component.
func NewSpeedCommand(dir Direction, linear, angularSpeed float64) SpeedCommand {
	if angularSpeed < 0 {
		angularSpeed = -angularSpeed
	}
	return SpeedCommand{
		Direction: dir,
		Linear:    linear,
		Angular:   dir.Sign() * angularSpeed,
	}
}

// CommandRecord is the telemetry view of a dispatched command.
type CommandRecord struct {
	RunID     string               `json:"run_id"`
	Seq       uint64               `json:"seq"`
	TS        time.Time            `json:"ts"`
	Rule      string               `json:"rule"`
	Command   SpeedCommand         `json:"command"`
	Distances DirectionalDistances `json:"distances"`
}

// TurnAway picks the turn that moves away from the nearer of two opposing
// obstacles: left when the right side is closer, right otherwise.
func TurnAway(right, left float64) Direction {
	if right < left {
		return DirectionLeft
	}
	return DirectionRight
}
