package sim_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/slalom/internal/adapters/sim"
	"github.com/okian/slalom/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPaint(t *testing.T) {
	convey.Convey("Given an open field", t, func() {
		base := sim.OpenField()

		convey.Convey("When painting across the heading", func() {
			scan := sim.Paint(base, 350, 370, 0.4)

			convey.Convey("Then both sides of bin 0 are set and the input is untouched", func() {
				convey.So(scan.Ranges[350], convey.ShouldEqual, 0.4)
				convey.So(scan.Ranges[359], convey.ShouldEqual, 0.4)
				convey.So(scan.Ranges[0], convey.ShouldEqual, 0.4)
				convey.So(scan.Ranges[9], convey.ShouldEqual, 0.4)
				convey.So(scan.Ranges[10], convey.ShouldEqual, 0)
				convey.So(scan.Ranges[349], convey.ShouldEqual, 0)
				convey.So(base.Ranges[0], convey.ShouldEqual, 0)
			})
		})

		convey.Convey("Then Fill sets every bin", func() {
			scan := sim.Fill(1.5)
			convey.So(scan.Ranges, convey.ShouldHaveLength, model.ScanBins)
			convey.So(scan.Ranges[123], convey.ShouldEqual, 1.5)
		})
	})
}

func TestSource(t *testing.T) {
	convey.Convey("Given a scripted source", t, func() {
		ctx := context.Background()
		a, b := sim.Fill(1), sim.Fill(2)

		convey.Convey("When the script is replayed once", func() {
			src := sim.NewSource(sim.WithScans(a, b))
			first, err1 := src.Fetch(ctx)
			second, err2 := src.Fetch(ctx)
			_, err3 := src.Fetch(ctx)

			convey.Convey("Then scans come back in order and the end is reported", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(first.Ranges[0], convey.ShouldEqual, 1)
				convey.So(second.Ranges[0], convey.ShouldEqual, 2)
				convey.So(first.TS.IsZero(), convey.ShouldBeFalse)
				convey.So(errors.Is(err3, sim.ErrScriptExhausted), convey.ShouldBeTrue)
				convey.So(src.Fetched(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the script loops", func() {
			src := sim.NewSource(sim.WithScans(a), sim.WithLoop(true))
			for i := 0; i < 3; i++ {
				_, err := src.Fetch(ctx)
				convey.So(err, convey.ShouldBeNil)
			}

			convey.Convey("Then it never runs dry", func() {
				convey.So(src.Fetched(), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When a fetched scan is modified", func() {
			src := sim.NewSource(sim.WithScans(a), sim.WithLoop(true))
			scan, _ := src.Fetch(ctx)
			scan.Ranges[0] = 9
			again, _ := src.Fetch(ctx)

			convey.Convey("Then the script is unaffected", func() {
				convey.So(again.Ranges[0], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When ctx is canceled during the scan period", func() {
			src := sim.NewSource(sim.WithScans(a), sim.WithPeriod(time.Hour))
			c, cancel := context.WithCancel(ctx)
			cancel()
			_, err := src.Fetch(c)

			convey.Convey("Then the cancellation is returned", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				convey.So(src.Fetched(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestRecorder(t *testing.T) {
	convey.Convey("Given a recorder", t, func() {
		ctx := context.Background()
		rec := sim.NewRecorder()
		cmd := model.NewSpeedCommand(model.DirectionLeft, 0, 1)

		convey.So(rec.Dispatch(ctx, cmd), convey.ShouldBeNil)

		convey.Convey("When it is told to fail", func() {
			boom := errors.New("boom")
			rec.FailWith(boom)
			err := rec.Dispatch(ctx, cmd)

			convey.Convey("Then the failure is returned and nothing is kept", func() {
				convey.So(err, convey.ShouldEqual, boom)
				convey.So(rec.Count(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("Then the command is kept", func() {
			convey.So(rec.Commands(), convey.ShouldResemble, []model.SpeedCommand{cmd})
		})
	})
}

func TestRecorderKeep(t *testing.T) {
	convey.Convey("Given a recorder that keeps two commands", t, func() {
		ctx := context.Background()
		rec := sim.NewRecorder(sim.WithKeep(2))
		for i := 1; i <= 3; i++ {
			convey.So(rec.Dispatch(ctx, model.NewSpeedCommand(model.DirectionStraight, float64(i), 0)), convey.ShouldBeNil)
		}

		convey.Convey("Then only the newest commands are retained and all are counted", func() {
			cmds := rec.Commands()
			convey.So(cmds, convey.ShouldHaveLength, 2)
			convey.So(cmds[0].Linear, convey.ShouldEqual, 2)
			convey.So(cmds[1].Linear, convey.ShouldEqual, 3)
			convey.So(rec.Count(), convey.ShouldEqual, 3)
		})
	})
}

func TestCourse(t *testing.T) {
	convey.Convey("Given the bench course", t, func() {
		course := sim.Course()

		convey.Convey("Then every scan is a full revolution", func() {
			convey.So(len(course), convey.ShouldBeGreaterThan, 0)
			for _, scan := range course {
				convey.So(scan.Ranges, convey.ShouldHaveLength, model.ScanBins)
			}
		})
	})
}
