package worker_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/courtline/internal/adapters/worker"
	"github.com/okian/courtline/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		convey.So(logger.Init(logger.WithOutput(io.Discard)), convey.ShouldBeNil)
		p := worker.NewPool(3, worker.WithName("test"))
		ctx := context.Background()

		convey.Convey("When running more jobs than workers", func() {
			var running, peak atomic.Int32
			out := make([]int, 20)
			err := p.Run(ctx, len(out), func(_ context.Context, i int) error {
				cur := running.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				out[i] = i * i
				running.Add(-1)
				return nil
			})

			convey.Convey("Then every job should run with bounded concurrency", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(peak.Load(), convey.ShouldBeLessThanOrEqualTo, 3)
				for i, v := range out {
					convey.So(v, convey.ShouldEqual, i*i)
				}
				convey.So(p.Size(), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When some jobs fail or panic", func() {
			boom := errors.New("boom")
			err := p.Run(ctx, 5, func(_ context.Context, i int) error {
				switch i {
				case 1:
					return boom
				case 3:
					panic("bad row")
				}
				return nil
			})

			convey.Convey("Then the errors should be joined", func() {
				convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
				convey.So(errors.Is(err, worker.ErrJobPanic), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			var calls atomic.Int32
			err := p.Run(cctx, 100, func(context.Context, int) error {
				calls.Add(1)
				return nil
			})

			convey.Convey("Then the cancellation should be reported", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				convey.So(calls.Load(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When there is nothing to do", func() {
			convey.So(p.Run(ctx, 0, nil), convey.ShouldBeNil)
		})

		convey.Convey("When the size is not positive", func() {
			convey.So(worker.NewPool(0).Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
