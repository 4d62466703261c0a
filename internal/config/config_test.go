package config_test

import (
	"errors"
	"testing"

	"github.com/okian/slalom/internal/config"
	"github.com/okian/slalom/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.MaxLinearVelocity, convey.ShouldEqual, 0.22)
			convey.So(cfg.MaxAngularSpeed, convey.ShouldEqual, 2.84)
			convey.So(cfg.RobotRadius, convey.ShouldEqual, 0.10)
			convey.So(cfg.LidarError, convey.ShouldEqual, 0.05)
			convey.So(cfg.NoReturnRange, convey.ShouldEqual, model.DefaultNoReturnRange)
			convey.So(cfg.RecoveryTurnRatio, convey.ShouldEqual, 0.8)
			convey.So(cfg.RecoveryMaxIterations, convey.ShouldEqual, 600)
			convey.So(cfg.ClampSpeedLaws, convey.ShouldBeTrue)
			convey.So(cfg.Source, convey.ShouldEqual, config.TransportSim)
			convey.So(cfg.Sink, convey.ShouldEqual, config.TransportSim)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then Thresholds should mirror the platform fields", func() {
			convey.So(cfg.Thresholds(), convey.ShouldResemble, model.Thresholds{
				MaxLinearVelocity: 0.22,
				MaxAngularSpeed:   2.84,
				RobotRadius:       0.10,
				LidarError:        0.05,
				NoReturnRange:     3.5,
			})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with a single invalid field", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"zero linear", func(c *config.Config) { c.MaxLinearVelocity = 0 }},
			{"negative angular", func(c *config.Config) { c.MaxAngularSpeed = -1 }},
			{"zero radius", func(c *config.Config) { c.RobotRadius = 0 }},
			{"negative lidar", func(c *config.Config) { c.LidarError = -0.01 }},
			{"zero no-return", func(c *config.Config) { c.NoReturnRange = 0 }},
			{"no-return inside the clear distance", func(c *config.Config) { c.NoReturnRange = 0.2 }},
			{"no-return inside the far turn band", func(c *config.Config) { c.NoReturnRange = 0.44 }},
			{"no-return inside a noisier scanner's turn band", func(c *config.Config) { c.LidarError = 1; c.NoReturnRange = 1.2 }},
			{"turn ratio too big", func(c *config.Config) { c.RecoveryTurnRatio = 1.5 }},
			{"unknown source", func(c *config.Config) { c.Source = "carrier-pigeon" }},
			{"serial without port", func(c *config.Config) { c.Sink = config.TransportSerial }},
			{"mqtt without broker", func(c *config.Config) { c.Source = config.TransportMQTT; c.MQTTBroker = "" }},
		}

		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" should be rejected", func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then a no-return range just beyond the far turn distance should pass", func() {
			cfg := config.New()
			cfg.NoReturnRange = 0.46
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then a serial sink with a port should pass", func() {
			cfg := config.New()
			cfg.Sink = config.TransportSerial
			cfg.SerialDrivePort = "/dev/ttyUSB0"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Brokers(t *testing.T) {
	convey.Convey("Given a comma separated broker list", t, func() {
		cfg := config.New()
		cfg.KafkaBrokers = " kafka-1:9092, ,kafka-2:9092 "

		convey.So(cfg.Brokers(), convey.ShouldResemble, []string{"kafka-1:9092", "kafka-2:9092"})

		cfg.KafkaBrokers = ""
		convey.So(cfg.Brokers(), convey.ShouldBeEmpty)
	})
}
