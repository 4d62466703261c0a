package model

// Fixed margins added on top of the configured robot geometry.
const (
	stopMargin        = 0.05
	turnBase          = 0.30
	farTurnBase       = 0.40
	clearMargin       = 0.05
	frontTriggerSlack = 0.03
)

// DefaultNoReturnRange is the scanner's maximum usable range in meters.
// Invalid readings are treated as an obstacle this far away.
const DefaultNoReturnRange = 3.5

// Thresholds is the immutable set of platform limits and derived distances shared by
// every component. It is built once at startup and passed by value.
type Thresholds struct {
	MaxLinearVelocity float64 // m/s
	MaxAngularSpeed   float64 // rad/s
	RobotRadius       float64 // m
	LidarError        float64 // m
	NoReturnRange     float64 // m, substituted for invalid readings
}

// DefaultThresholds describes a small differential-drive robot with a
// 360-bin scanner.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxLinearVelocity: 0.22,
		MaxAngularSpeed:   2.84,
		RobotRadius:       0.10,
		LidarError:        0.05,
		NoReturnRange:     DefaultNoReturnRange,
	}
}

// StopDistance is the hard avoidance radius.
func (t Thresholds) StopDistance() float64 {
	return t.RobotRadius + t.LidarError + stopMargin
}

// TurnDistance is the radius at which proportional steering starts.
func (t Thresholds) TurnDistance() float64 {
	return turnBase + t.LidarError
}

// FarTurnDistance is the wider radius applied to the blind sectors.
func (t Thresholds) FarTurnDistance() float64 {
	return farTurnBase + t.LidarError
}

// ClearDistance is the distance a recovery turn must reach before it ends.
func (t Thresholds) ClearDistance() float64 {
	return t.StopDistance() + clearMargin
}

// FrontTriggerDistance is the slightly wider front radius used by the front-only rules.
func (t Thresholds) FrontTriggerDistance() float64 {
	return t.StopDistance() + frontTriggerSlack
}
