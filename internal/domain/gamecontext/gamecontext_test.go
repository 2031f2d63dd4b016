package gamecontext_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/grit/internal/domain/gamecontext"
	"github.com/okian/grit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestLeverage(t *testing.T) {
	Convey("Given the leverage formula", t, func() {
		Convey("When the situation is bottom-nine, two out, bases loaded, tie game", func() {
			s := model.GameSituation{Inning: 9, Outs: 2, Bases: "111", ScoreDiff: 0}

			Convey("Then leverage is 2.0 * 1.5 * 1.9 * 1.5 = 8.55 and pressure is critical", func() {
				lev := gamecontext.Leverage(s)
				So(lev, ShouldEqual, 8.55)
				So(gamecontext.Classify(lev), ShouldEqual, model.PressureCritical)
			})
		})

		Convey("When the situation is a first-inning blowout with nobody on", func() {
			s := model.GameSituation{Inning: 1, Outs: 0, Bases: "000", ScoreDiff: 10}

			Convey("Then leverage is 1.0 * 1.0 * 1.0 * 0.5 = 0.5 and pressure is low", func() {
				lev := gamecontext.Leverage(s)
				So(lev, ShouldEqual, 0.5)
				So(gamecontext.Classify(lev), ShouldEqual, model.PressureLow)
			})
		})

		Convey("When extra innings are reached", func() {
			Convey("Then the inning multiplier is pinned at 2.0 from the ninth on", func() {
				ninth := gamecontext.Leverage(model.GameSituation{Inning: 9, Outs: 0, Bases: "000", ScoreDiff: 20})
				fifteenth := gamecontext.Leverage(model.GameSituation{Inning: 15, Outs: 0, Bases: "000", ScoreDiff: 20})
				So(ninth, ShouldEqual, fifteenth)
				So(ninth, ShouldEqual, 1.0) // 2.0 * 0.5
			})
		})

		Convey("When the eighth inning is reached", func() {
			Convey("Then the inning multiplier caps at 1.8", func() {
				// 1.0 + 7*0.1 = 1.7, below the cap; cap only binds at 9+,
				// where the late-inning override takes over anyway.
				lev := gamecontext.Leverage(model.GameSituation{Inning: 8, Outs: 0, Bases: "000", ScoreDiff: 0})
				So(lev, ShouldEqual, 2.55) // 1.7 * 1.5
			})
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given the pressure thresholds", t, func() {
		cases := []struct {
			leverage float64
			want     model.PressureContext
		}{
			{0.0, model.PressureLow},
			{1.19, model.PressureLow},
			{1.2, model.PressureMedium},
			{1.79, model.PressureMedium},
			{1.8, model.PressureHigh},
			{2.49, model.PressureHigh},
			{2.5, model.PressureCritical},
			{8.55, model.PressureCritical},
		}

		for _, tc := range cases {
			Convey(fmt.Sprintf("Then leverage %v %s boundaries hold", tc.leverage, tc.want), func() {
				So(gamecontext.Classify(tc.leverage), ShouldEqual, tc.want)
			})
		}
	})
}

func TestEngineUpdate(t *testing.T) {
	Convey("Given a fresh engine", t, func() {
		engine := gamecontext.New()

		Convey("When an out-of-range inning is applied", func() {
			ctx, err := engine.Update(gamecontext.Patch{Inning: intPtr(99)})

			Convey("Then the stored inning is clamped to 15", func() {
				So(err, ShouldBeNil)
				So(ctx.Inning, ShouldEqual, 15)
			})
		})

		Convey("When an invalid bases string is applied", func() {
			_, err := engine.Update(gamecontext.Patch{Bases: strPtr("101")})
			So(err, ShouldBeNil)

			ctx, err := engine.Update(gamecontext.Patch{Bases: strPtr("12x"), Outs: intPtr(2)})

			Convey("Then the previous bases value is retained and the error is surfaced", func() {
				So(errors.Is(err, gamecontext.ErrInvalidBases), ShouldBeTrue)
				So(ctx.Bases, ShouldEqual, "101")
			})

			Convey("And the rest of the patch still applies", func() {
				So(ctx.Outs, ShouldEqual, 2)
			})
		})

		Convey("When a negative score differential is applied", func() {
			ctx, err := engine.Update(gamecontext.Patch{ScoreDiff: intPtr(-99)})

			Convey("Then it clamps to -50", func() {
				So(err, ShouldBeNil)
				So(ctx.ScoreDiff, ShouldEqual, -50)
			})
		})

		Convey("When the engine is reset after updates", func() {
			_, err := engine.Update(gamecontext.Patch{Inning: intPtr(9), Outs: intPtr(2), Bases: strPtr("111")})
			So(err, ShouldBeNil)
			ctx := engine.Reset()

			Convey("Then the default situation is restored", func() {
				So(ctx.Inning, ShouldEqual, 1)
				So(ctx.Outs, ShouldEqual, 0)
				So(ctx.Bases, ShouldEqual, "000")
				So(ctx.ScoreDiff, ShouldEqual, 0)
				So(ctx.PressureContext, ShouldEqual, model.PressureMedium) // 1.0*1.0*1.0*1.5 = 1.5
			})
		})

		Convey("When the context is read back", func() {
			_, err := engine.Update(gamecontext.Patch{Inning: intPtr(7), Bases: strPtr("110"), ScoreDiff: intPtr(-1)})
			So(err, ShouldBeNil)
			ctx := engine.Context()

			Convey("Then derived fields are recomputed synchronously", func() {
				// 1.6 * 1.0 * 1.6 * 1.5 = 3.84
				So(ctx.LeverageIndex, ShouldEqual, 3.84)
				So(ctx.PressureContext, ShouldEqual, model.PressureCritical)
				So(ctx.BasesState, ShouldEqual, "runners on")
				So(ctx.Description, ShouldContainSubstring, "down 1")
			})
		})
	})
}
