package pool

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBreaker(t *testing.T) {
	Convey("Given a breaker", t, func() {
		b := NewBreaker(3, 50*time.Millisecond, 2)

		So(b.State(), ShouldEqual, BreakerClosed)
		So(b.Allow(), ShouldBeTrue)

		Convey("Failures below the threshold keep it closed", func() {
			b.RecordFailure()
			b.RecordFailure()
			So(b.State(), ShouldEqual, BreakerClosed)

			Convey("And a success resets the count", func() {
				b.RecordSuccess()
				b.RecordFailure()
				b.RecordFailure()
				So(b.State(), ShouldEqual, BreakerClosed)
			})
		})

		Convey("Reaching the threshold opens it", func() {
			for i := 0; i < 3; i++ {
				b.RecordFailure()
			}

			So(b.State(), ShouldEqual, BreakerOpen)
			So(b.Allow(), ShouldBeFalse)

			Convey("After the reset timeout it probes half-open", func() {
				time.Sleep(80 * time.Millisecond)

				So(b.Allow(), ShouldBeTrue)
				So(b.State(), ShouldEqual, BreakerHalfOpen)

				Convey("Enough successes close it", func() {
					b.RecordSuccess()
					b.RecordSuccess()
					So(b.State(), ShouldEqual, BreakerClosed)
				})

				Convey("A failure reopens it", func() {
					b.RecordFailure()
					So(b.State(), ShouldEqual, BreakerOpen)
					So(b.Allow(), ShouldBeFalse)
				})
			})
		})
	})
}

func TestBreakerStateString(t *testing.T) {
	Convey("Breaker states have readable names", t, func() {
		So(BreakerClosed.String(), ShouldEqual, "closed")
		So(BreakerOpen.String(), ShouldEqual, "open")
		So(BreakerHalfOpen.String(), ShouldEqual, "half-open")
		So(BreakerState(42).String(), ShouldEqual, "unknown")
	})
}
