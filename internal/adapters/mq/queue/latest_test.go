package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLatest(t *testing.T) {
	Convey("Given a latest-wins buffer of two", t, func() {
		l := NewLatest[int](2)
		ctx := context.Background()

		Convey("When three items are offered", func() {
			So(l.Offer(1), ShouldEqual, 0)
			So(l.Offer(2), ShouldEqual, 0)
			So(l.Offer(3), ShouldEqual, 1)

			Convey("Then the two newest should remain in order", func() {
				So(l.Len(), ShouldEqual, 2)
				a, _ := l.Take(ctx)
				b, _ := l.Take(ctx)
				So([]int{a, b}, ShouldResemble, []int{2, 3})
			})
		})

		Convey("When Take waits past its deadline", func() {
			c, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()
			_, err := l.Take(c)

			Convey("Then it should report the deadline", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When closed with items still buffered", func() {
			l.Offer(1)
			l.Offer(2)
			l.Close()

			Convey("Then the buffered items are drained before ErrClosed", func() {
				a, errA := l.Take(ctx)
				b, errB := l.Take(ctx)
				_, errC := l.Take(ctx)
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So([]int{a, b}, ShouldResemble, []int{1, 2})
				So(errors.Is(errC, ErrClosed), ShouldBeTrue)
			})
		})

		Convey("When closed", func() {
			l.Close()
			l.Close()

			Convey("Then Take should fail and Offer be ignored", func() {
				So(l.Offer(9), ShouldEqual, 0)
				_, err := l.Take(ctx)
				So(errors.Is(err, ErrClosed), ShouldBeTrue)
			})
		})
	})

	Convey("Given a non-positive size", t, func() {
		l := NewLatest[string](0)
		l.Offer("a")
		l.Offer("b")
		got, _ := l.Take(context.Background())
		So(got, ShouldEqual, "b")
	})
}
