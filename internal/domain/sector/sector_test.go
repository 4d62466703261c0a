package sector_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/internal/domain/sector"
	. "github.com/smartystreets/goconvey/convey"
)

// fill returns a full scan with every bin set to v.
func fill(v float64) model.RawScan {
	r := make([]float64, model.ScanBins)
	for i := range r {
		r[i] = v
	}
	return model.RawScan{Ranges: r}
}

func TestAggregator_Reduce(t *testing.T) {
	Convey("Given a default aggregator", t, func() {
		agg := sector.NewAggregator()

		Convey("When every reading is a no-return", func() {
			got := agg.Reduce([]float64{0, 0, 0, 0, 0, 0})

			Convey("Then the estimate is the no-return range", func() {
				So(got, ShouldEqual, 3.5)
			})
		})

		Convey("When the sector holds a near and a far cluster", func() {
			got := agg.Reduce([]float64{0.9, 0.1, 1.0, 0.2})

			Convey("Then it averages the smallest half", func() {
				So(got, ShouldAlmostEqual, 0.15, 1e-12)
			})
		})

		Convey("When the sector count is odd", func() {
			got := agg.Reduce([]float64{0.5, 0.3, 2.0, 0.4, 1.0})

			Convey("Then it averages floor(n/2) smallest readings", func() {
				So(got, ShouldAlmostEqual, 0.35, 1e-12)
			})
		})

		Convey("When the sector is empty or a single reading", func() {
			Convey("Then it falls back to the no-return range", func() {
				So(agg.Reduce(nil), ShouldEqual, 3.5)
				So(agg.Reduce([]float64{0.12}), ShouldEqual, 3.5)
			})
		})

		Convey("When readings are non-finite or negative", func() {
			got := agg.Sanitize([]float64{math.NaN(), math.Inf(1), -1, 0, 0.7})

			Convey("Then they are replaced by the no-return range", func() {
				So(got, ShouldResemble, []float64{3.5, 3.5, 3.5, 3.5, 0.7})
			})
		})

		Convey("When reducing", func() {
			in := []float64{0.9, 0, 0.2, 0.4}
			_ = agg.Reduce(in)

			Convey("Then the caller's slice is left untouched", func() {
				So(in, ShouldResemble, []float64{0.9, 0, 0.2, 0.4})
			})
		})
	})

	Convey("Given an aggregator with a custom no-return range", t, func() {
		agg := sector.NewAggregator(sector.WithNoReturnRange(8.0))

		Convey("Then invalid readings sanitize to that range", func() {
			So(agg.Reduce([]float64{0, 0}), ShouldEqual, 8.0)
			So(agg.NoReturnRange(), ShouldEqual, 8.0)
		})
	})
}

func TestAggregator_Aggregate(t *testing.T) {
	Convey("Given a default aggregator", t, func() {
		agg := sector.NewAggregator()

		Convey("When the scan has no valid returns", func() {
			d := agg.Aggregate(fill(0))

			Convey("Then every sector is open", func() {
				for _, s := range model.Sectors {
					So(d.Get(s), ShouldEqual, 3.5)
				}
			})
		})

		Convey("When an obstacle sits straight ahead across the seam", func() {
			scan := fill(2.0)
			for i := 350; i < 360; i++ {
				scan.Ranges[i] = 0.3
			}
			for i := 0; i < 10; i++ {
				scan.Ranges[i] = 0.3
			}
			d := agg.Aggregate(scan)

			Convey("Then only the front sector sees it", func() {
				So(d.Front, ShouldAlmostEqual, 0.3, 1e-12)
				So(d.Left, ShouldEqual, 2.0)
				So(d.Right, ShouldEqual, 2.0)
				So(d.FrontLeft, ShouldEqual, 2.0)
				So(d.FrontRight, ShouldEqual, 2.0)
			})
		})

		Convey("When an obstacle sits in the front-right blind sector", func() {
			scan := fill(2.0)
			for i := 337; i < 345; i++ {
				scan.Ranges[i] = 0.25
			}
			d := agg.Aggregate(scan)

			Convey("Then the front-right sector sees it and the wide right sector is pulled closer", func() {
				So(d.FrontRight, ShouldAlmostEqual, 0.25, 1e-12)
				// 8 near bins among the 20 smallest of 40: (8*0.25 + 12*2.0) / 20
				So(d.Right, ShouldAlmostEqual, 1.3, 1e-12)
				So(d.Front, ShouldEqual, 2.0)
			})
		})

		Convey("When the scan is shorter than a full revolution", func() {
			scan := model.RawScan{Ranges: []float64{1.0, 1.0, 1.0}}
			d := agg.Aggregate(scan)

			Convey("Then missing bins contribute nothing", func() {
				So(d.Front, ShouldEqual, 1.0)
				So(d.Left, ShouldEqual, 3.5)
			})
		})

		Convey("When aggregating the same scan twice", func() {
			scan := fill(0)
			for i := range scan.Ranges {
				scan.Ranges[i] = 0.2 + float64(i%17)*0.1
			}
			first := agg.Aggregate(scan)
			second := agg.Aggregate(scan)

			Convey("Then the results are identical", func() {
				So(cmp.Diff(first, second), ShouldBeEmpty)
			})
		})
	})

	Convey("Given an aggregator with a custom layout", t, func() {
		layout := sector.DefaultLayout()
		layout[model.SectorLeft] = []sector.Span{{Start: 80, End: 100}}
		agg := sector.NewAggregator(sector.WithLayout(layout))

		scan := fill(2.0)
		for i := 80; i < 100; i++ {
			scan.Ranges[i] = 0.4
		}

		Convey("Then the left sector follows the new span", func() {
			So(agg.Aggregate(scan).Left, ShouldAlmostEqual, 0.4, 1e-12)
		})
	})
}

func TestDefaultNoReturnRange(t *testing.T) {
	Convey("Given the default aggregator and platform thresholds", t, func() {
		Convey("Then they substitute the same far distance", func() {
			So(sector.DefaultNoReturnRange, ShouldEqual, model.DefaultThresholds().NoReturnRange)
			So(sector.NewAggregator().NoReturnRange(), ShouldEqual, model.DefaultNoReturnRange)
		})
	})
}
