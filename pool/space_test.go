package pool

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const testTimeout = 2 * time.Second

func TestSpace(t *testing.T) {
	Convey("Given a result space", t, func() {
		s := NewSpace(time.Minute)

		Reset(func() {
			s.Close()
		})

		Convey("A stored value is handed to a later awaiter", func() {
			s.Store("test-key", "test-value", nil, time.Minute)

			select {
			case <-time.After(testTimeout):
				t.Fatal("timed out waiting for stored value")
			case outcome := <-s.Await("test-key"):
				So(outcome.Value, ShouldEqual, "test-value")
				So(outcome.Err, ShouldBeNil)
			}
		})

		Convey("Every earlier awaiter receives the value", func() {
			first := s.Await("later")
			second := s.Await("later")

			boom := errors.New("boom")
			s.Store("later", nil, boom, time.Minute)

			for _, ch := range []<-chan Outcome{first, second} {
				select {
				case <-time.After(testTimeout):
					t.Fatal("timed out waiting for awaiter")
				case outcome := <-ch:
					So(outcome.Err, ShouldEqual, boom)
				}
			}
		})

		Convey("Forget drops a value", func() {
			s.Store("gone", 1, nil, time.Minute)
			So(s.Len(), ShouldEqual, 1)
			s.Forget("gone")
			So(s.Len(), ShouldEqual, 0)
		})

		Convey("Forgetting an awaited outcome discards it on arrival", func() {
			ch := s.Await("pending")
			s.Forget("pending")

			_, ok := <-ch
			So(ok, ShouldBeFalse)

			s.Store("pending", 1, nil, time.Minute)
			So(s.Len(), ShouldEqual, 0)
		})

		Convey("Expired values are evicted", func() {
			s.Store("short", 1, nil, time.Millisecond)
			s.Store("forever", 2, nil, 0)
			time.Sleep(5 * time.Millisecond)

			s.evictExpired()
			So(s.Len(), ShouldEqual, 1)
		})

		Convey("Close is idempotent", func() {
			s.Close()
			So(func() { s.Close() }, ShouldNotPanic)
		})
	})
}
