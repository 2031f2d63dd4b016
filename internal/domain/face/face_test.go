package face_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/grit/internal/domain/face"
	"github.com/okian/grit/internal/feedsim"
	. "github.com/smartystreets/goconvey/convey"
)

const frameInterval = 33 * time.Millisecond

func newReady(t *testing.T, gen *feedsim.Generator, opts ...face.Option) *face.Extractor {
	t.Helper()
	e := face.New(gen, opts...)
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return e
}

func TestInitialize(t *testing.T) {
	Convey("Given an extractor whose provider cannot load", t, func() {
		gen := feedsim.New(feedsim.WithLoadError(errors.New("no gpu")))
		e := face.New(gen)

		Convey("When Initialize is called", func() {
			err := e.Initialize(context.Background())

			Convey("Then it fails with the initialization kind", func() {
				So(errors.Is(err, face.ErrInitialization), ShouldBeTrue)
			})

			Convey("And ProcessFrame refuses to run", func() {
				_, _, perr := e.ProcessFrame(context.Background(), gen.Frame(time.Now()))
				So(errors.Is(perr, face.ErrNotInitialized), ShouldBeTrue)
			})
		})
	})

	Convey("Given a healthy provider", t, func() {
		e := face.New(feedsim.New())

		Convey("When Initialize is called twice", func() {
			So(e.Initialize(context.Background()), ShouldBeNil)

			Convey("Then the second call is a no-op", func() {
				So(e.Initialize(context.Background()), ShouldBeNil)
			})
		})
	})
}

func TestProcessFrameNeutral(t *testing.T) {
	Convey("Given an initialized extractor and a neutral still face", t, func() {
		gen := feedsim.New()
		e := newReady(t, gen)

		Convey("When a neutral frame is processed", func() {
			features, ok, err := e.ProcessFrame(context.Background(), gen.Frame(time.Unix(10, 0)))

			Convey("Then a face is detected", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			})

			Convey("And EAR sits at the neutral 0.3", func() {
				So(features.EyeAR, ShouldAlmostEqual, 0.3, 1e-9)
				So(features.Blink, ShouldEqual, 0)
			})

			Convey("And all AU intensities are near zero against the neutral defaults", func() {
				So(features.AU.AU4, ShouldAlmostEqual, 0, 0.2)
				So(features.AU.AU5_7, ShouldAlmostEqual, 0, 0.2)
				So(features.AU.AU9_10, ShouldAlmostEqual, 0, 0.2)
				So(features.AU.AU14, ShouldAlmostEqual, 0, 0.2)
				So(features.AU.AU17_23_24, ShouldAlmostEqual, 0, 0.2)
			})

			Convey("And the gaze vector is unit length", func() {
				g := features.Gaze
				norm := g[0]*g[0] + g[1]*g[1] + g[2]*g[2]
				So(norm, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When a frame without a face is processed", func() {
			_, ok, err := e.ProcessFrame(context.Background(), gen.Empty(time.Unix(10, 0)))

			Convey("Then the result is absent, not an error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestBlinkDebounce(t *testing.T) {
	Convey("Given an initialized extractor", t, func() {
		gen := feedsim.New()
		e := newReady(t, gen)
		base := time.Unix(100, 0)

		gen.SetEyesClosed(true)

		Convey("When two below-threshold frames arrive 50 ms apart", func() {
			first, _, _ := e.ProcessFrame(context.Background(), gen.Frame(base))
			second, _, _ := e.ProcessFrame(context.Background(), gen.Frame(base.Add(50*time.Millisecond)))

			Convey("Then only the first registers as a blink", func() {
				So(first.Blink, ShouldEqual, 1)
				So(second.Blink, ShouldEqual, 0)
			})
		})

		Convey("When two below-threshold frames arrive 150 ms apart", func() {
			first, _, _ := e.ProcessFrame(context.Background(), gen.Frame(base))
			second, _, _ := e.ProcessFrame(context.Background(), gen.Frame(base.Add(150*time.Millisecond)))

			Convey("Then both register as blinks", func() {
				So(first.Blink, ShouldEqual, 1)
				So(second.Blink, ShouldEqual, 1)
			})

			Convey("And the rolling history reflects two blinks per minute", func() {
				So(e.BlinkRate(), ShouldEqual, 2.0)
			})
		})
	})
}

func TestBaselineCalibration(t *testing.T) {
	Convey("Given an extractor with the default 150-sample baseline", t, func() {
		gen := feedsim.New()
		e := newReady(t, gen)
		base := time.Unix(200, 0)

		Convey("When 149 frames have been processed", func() {
			for i := 0; i < 149; i++ {
				_, ok, err := e.ProcessFrame(context.Background(), gen.Frame(base.Add(time.Duration(i)*frameInterval)))
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			}

			Convey("Then the baseline is not yet established", func() {
				So(e.BaselineEstablished(), ShouldBeFalse)
			})

			Convey("And the 150th frame establishes it exactly once", func() {
				_, _, err := e.ProcessFrame(context.Background(), gen.Frame(base.Add(149*frameInterval)))
				So(err, ShouldBeNil)
				So(e.BaselineEstablished(), ShouldBeTrue)

				// Stays established for the rest of the session.
				for i := 150; i < 170; i++ {
					_, _, _ = e.ProcessFrame(context.Background(), gen.Frame(base.Add(time.Duration(i)*frameInterval)))
					So(e.BaselineEstablished(), ShouldBeTrue)
				}
			})
		})
	})

	Convey("Given an established neutral baseline", t, func() {
		gen := feedsim.New()
		e := newReady(t, gen, face.WithBaselineSamples(10))
		base := time.Unix(300, 0)
		for i := 0; i < 10; i++ {
			_, _, _ = e.ProcessFrame(context.Background(), gen.Frame(base.Add(time.Duration(i)*frameInterval)))
		}
		So(e.BaselineEstablished(), ShouldBeTrue)

		Convey("When the brow is lowered hard", func() {
			gen.SetBrowLower(1.0)
			features, _, _ := e.ProcessFrame(context.Background(), gen.Frame(base.Add(time.Second)))

			Convey("Then AU4 rises while staying clamped", func() {
				So(features.AU.AU4, ShouldBeGreaterThan, 1.0)
				So(features.AU.AU4, ShouldBeLessThanOrEqualTo, 5.0)
			})
		})

		Convey("When the jaw tightens", func() {
			gen.SetJawTension(1.0)
			features, _, _ := e.ProcessFrame(context.Background(), gen.Frame(base.Add(time.Second)))

			Convey("Then jaw tension rises while staying clamped", func() {
				So(features.AU.AU17_23_24, ShouldBeGreaterThan, 0.5)
				So(features.AU.AU17_23_24, ShouldBeLessThanOrEqualTo, 5.0)
			})
		})
	})
}

func TestAUBounds(t *testing.T) {
	Convey("Given extreme synthetic inputs", t, func() {
		gen := feedsim.New(feedsim.WithJitter(0.05), feedsim.WithSeed(7))
		e := newReady(t, gen)
		base := time.Unix(400, 0)

		Convey("When heavily jittered and ramped frames are processed", func() {
			gen.SetBrowLower(1.0)
			gen.SetJawTension(1.0)
			gen.SetEyesClosed(true)

			for i := 0; i < 200; i++ {
				features, ok, err := e.ProcessFrame(context.Background(), gen.Frame(base.Add(time.Duration(i)*frameInterval)))
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)

				for _, au := range []float64{
					features.AU.AU4, features.AU.AU5_7, features.AU.AU9_10,
					features.AU.AU14, features.AU.AU17_23_24,
				} {
					So(au, ShouldBeGreaterThanOrEqualTo, 0)
					So(au, ShouldBeLessThanOrEqualTo, 5)
				}

				for _, q := range []float64{
					features.Quality.DetectionConfidence, features.Quality.TrackingStability,
					features.Quality.MotionBlur, features.Quality.Illumination,
					features.Quality.OcclusionRatio,
				} {
					So(q, ShouldBeGreaterThanOrEqualTo, 0)
					So(q, ShouldBeLessThanOrEqualTo, 1)
				}
			}
		})
	})
}

func TestQuality(t *testing.T) {
	Convey("Given a still neutral face", t, func() {
		gen := feedsim.New()
		e := newReady(t, gen)
		base := time.Unix(500, 0)

		Convey("When 30 frames have been processed", func() {
			var last float64
			for i := 0; i < 30; i++ {
				features, _, _ := e.ProcessFrame(context.Background(), gen.Frame(base.Add(time.Duration(i)*frameInterval)))
				So(features.Quality.TrackingStability, ShouldBeGreaterThanOrEqualTo, last)
				last = features.Quality.TrackingStability
			}

			Convey("Then tracking stability has reached its plateau", func() {
				So(last, ShouldEqual, 1.0)
			})

			Convey("And a still face reads as sharp and confident", func() {
				features, _, _ := e.ProcessFrame(context.Background(), gen.Frame(base.Add(time.Second)))
				So(features.Quality.MotionBlur, ShouldEqual, 0)
				So(features.Quality.DetectionConfidence, ShouldEqual, 1.0)
				So(features.Quality.OcclusionRatio, ShouldEqual, 0)
			})
		})
	})
}
