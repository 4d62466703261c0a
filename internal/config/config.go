// Package config defines controller configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat so that every field maps to a single SLALOM_* variable.
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/slalom/internal/domain/model"
)

// Transport names accepted by Source and Sink.
const (
	TransportSim    = "sim"
	TransportMQTT   = "mqtt"
	TransportSerial = "serial"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the ops HTTP listen address, e.g. ":9080". Empty disables it.
	Addr string `koanf:"addr"`

	// Platform limits and geometry.
	MaxLinearVelocity float64 `koanf:"max_linear_velocity"`
	MaxAngularSpeed   float64 `koanf:"max_angular_speed"`
	RobotRadius       float64 `koanf:"robot_radius"`
	LidarError        float64 `koanf:"lidar_error"`

	// NoReturnRange replaces invalid readings; the scanner's maximum usable range.
	NoReturnRange float64 `koanf:"no_return_range"`

	// RecoveryTurnRatio is the in-place turn rate as a fraction of MaxAngularSpeed.
	RecoveryTurnRatio float64 `koanf:"recovery_turn_ratio"`

	// RecoveryMaxIterations caps one recovery turn; 0 removes the cap.
	RecoveryMaxIterations int `koanf:"recovery_max_iterations"`

	// ClampSpeedLaws bounds far-field commands by the platform maxima.
	ClampSpeedLaws bool `koanf:"clamp_speed_laws"`

	// Source and Sink select the scan and command transports.
	Source string `koanf:"source"`
	Sink   string `koanf:"sink"`

	// SimPeriodMS paces the simulated scanner.
	SimPeriodMS int `koanf:"sim_period_ms"`

	// MQTT transport.
	MQTTBroker    string `koanf:"mqtt_broker"`
	MQTTClientID  string `koanf:"mqtt_client_id"`
	MQTTScanTopic string `koanf:"mqtt_scan_topic"`
	MQTTCmdTopic  string `koanf:"mqtt_cmd_topic"`
	MQTTTimeoutMS int    `koanf:"mqtt_timeout_ms"`

	// ScanBuffer bounds how many received scans may wait for the controller.
	ScanBuffer int `koanf:"scan_buffer"`

	// Serial transport.
	SerialScanPort  string `koanf:"serial_scan_port"`
	SerialDrivePort string `koanf:"serial_drive_port"`
	SerialBaudRate  int    `koanf:"serial_baud_rate"`

	// KafkaBrokers is a comma separated broker list. Empty disables command telemetry.
	KafkaBrokers string `koanf:"kafka_brokers"`
	KafkaTopic   string `koanf:"kafka_topic"`

	// TelemetryQueueSize bounds the command records waiting for Kafka.
	TelemetryQueueSize int `koanf:"telemetry_queue_size"`
}

// New creates a Config with defaults for a small differential-drive robot with a
// 360-bin scanner.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		MaxLinearVelocity:     0.22,
		MaxAngularSpeed:       2.84,
		RobotRadius:           0.10,
		LidarError:            0.05,
		NoReturnRange:         model.DefaultNoReturnRange,
		RecoveryTurnRatio:     0.8,
		RecoveryMaxIterations: 600,
		ClampSpeedLaws:        true,
		Source:                TransportSim,
		Sink:                  TransportSim,
		SimPeriodMS:           200,
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientID:          "slalom",
		MQTTScanTopic:         "robot/scan",
		MQTTCmdTopic:          "robot/cmd_vel",
		MQTTTimeoutMS:         500,
		ScanBuffer:            1,
		SerialBaudRate:        115200,
		KafkaTopic:            "slalom.commands",
		TelemetryQueueSize:    1024,
	}
}

// Thresholds returns the immutable platform thresholds.
func (c *Config) Thresholds() model.Thresholds {
	return model.Thresholds{
		MaxLinearVelocity: c.MaxLinearVelocity,
		MaxAngularSpeed:   c.MaxAngularSpeed,
		RobotRadius:       c.RobotRadius,
		LidarError:        c.LidarError,
		NoReturnRange:     c.NoReturnRange,
	}
}

// Brokers splits KafkaBrokers into a list, dropping blanks.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Validate checks that the configuration can drive a robot.
func (c *Config) Validate() error {
	switch {
	case c.MaxLinearVelocity <= 0:
		return fmt.Errorf("%w: max_linear_velocity must be positive", ErrInvalidConfig)
	case c.MaxAngularSpeed <= 0:
		return fmt.Errorf("%w: max_angular_speed must be positive", ErrInvalidConfig)
	case c.RobotRadius <= 0:
		return fmt.Errorf("%w: robot_radius must be positive", ErrInvalidConfig)
	case c.LidarError < 0:
		return fmt.Errorf("%w: lidar_error must not be negative", ErrInvalidConfig)
	case c.NoReturnRange <= c.Thresholds().FarTurnDistance():
		return fmt.Errorf("%w: no_return_range %.3f must exceed the far turn distance %.3f",
			ErrInvalidConfig, c.NoReturnRange, c.Thresholds().FarTurnDistance())
	case c.RecoveryTurnRatio <= 0 || c.RecoveryTurnRatio > 1:
		return fmt.Errorf("%w: recovery_turn_ratio must be in (0, 1]", ErrInvalidConfig)
	}
	if err := c.validateTransport("source", c.Source, c.SerialScanPort, c.MQTTScanTopic); err != nil {
		return err
	}
	return c.validateTransport("sink", c.Sink, c.SerialDrivePort, c.MQTTCmdTopic)
}

func (c *Config) validateTransport(key, name, serialPort, topic string) error {
	switch name {
	case TransportSim:
		return nil
	case TransportMQTT:
		if c.MQTTBroker == "" || topic == "" {
			return fmt.Errorf("%w: %s=mqtt needs mqtt_broker and a topic", ErrInvalidConfig, key)
		}
		return nil
	case TransportSerial:
		if serialPort == "" {
			return fmt.Errorf("%w: %s=serial needs a serial port", ErrInvalidConfig, key)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown %s transport %q", ErrInvalidConfig, key, name)
	}
}
