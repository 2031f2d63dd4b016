package capture_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/grit/internal/adapters/capture"
	"github.com/okian/grit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func frameAt(sec int64) model.Frame {
	return model.Frame{Timestamp: time.Unix(sec, 0)}
}

func TestSlot(t *testing.T) {
	Convey("Given an empty slot", t, func() {
		slot := capture.NewSlot()

		Convey("When three frames are published before any take", func() {
			slot.Publish(frameAt(1))
			slot.Publish(frameAt(2))
			slot.Publish(frameAt(3))

			Convey("Then the consumer sees only the latest", func() {
				frame, ok := slot.Next(context.Background())
				So(ok, ShouldBeTrue)
				So(frame.Timestamp, ShouldEqual, time.Unix(3, 0))
			})

			Convey("And the two overwritten frames count as drops", func() {
				So(slot.Drops(), ShouldEqual, 2)
			})
		})

		Convey("When a frame is published and consumed", func() {
			slot.Publish(frameAt(1))
			_, ok := slot.Next(context.Background())
			So(ok, ShouldBeTrue)

			Convey("Then a consumed frame is not a drop", func() {
				So(slot.Drops(), ShouldEqual, 0)
			})
		})

		Convey("When the consumer waits for a producer", func() {
			done := make(chan model.Frame, 1)
			go func() {
				frame, ok := slot.Next(context.Background())
				if ok {
					done <- frame
				}
			}()

			time.Sleep(20 * time.Millisecond)
			slot.Publish(frameAt(42))

			Convey("Then the blocked take receives the frame", func() {
				select {
				case frame := <-done:
					So(frame.Timestamp, ShouldEqual, time.Unix(42, 0))
				case <-time.After(time.Second):
					t.Fatal("consumer never woke up")
				}
			})
		})

		Convey("When the context is cancelled while waiting", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan bool, 1)
			go func() {
				_, ok := slot.Next(ctx)
				done <- ok
			}()

			time.Sleep(20 * time.Millisecond)
			cancel()

			Convey("Then the take returns not-ok", func() {
				select {
				case ok := <-done:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("consumer never woke up")
				}
			})
		})

		Convey("When the slot is closed", func() {
			slot.Close()

			Convey("Then takes return not-ok immediately", func() {
				_, ok := slot.Next(context.Background())
				So(ok, ShouldBeFalse)
			})

			Convey("And publishing becomes a no-op", func() {
				slot.Publish(frameAt(9))
				_, ok := slot.Next(context.Background())
				So(ok, ShouldBeFalse)
			})

			Convey("And closing again is harmless", func() {
				slot.Close()
			})
		})
	})
}
