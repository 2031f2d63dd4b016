package gateway_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/grit/internal/adapters/gateway"
	"github.com/okian/grit/internal/domain/gamecontext"
	"github.com/okian/grit/internal/domain/model"
	"github.com/okian/grit/internal/gatewaytest"
	. "github.com/smartystreets/goconvey/convey"
)

func testConfig() model.SessionConfig {
	return model.SessionConfig{
		SessionID:          "sess-1",
		PlayerID:           "player-9",
		Sport:              "baseball",
		TargetFPS:          30,
		EnableFace:         true,
		BaselineDurationMS: 5000,
	}
}

func facePacket(sessionID string, au model.AUIntensities) model.FeaturePacket {
	return model.FeaturePacket{
		SessionID: sessionID,
		Timestamp: time.Now(),
		Face: &model.FaceFeatures{
			Timestamp: time.Now(),
			EyeAR:     0.3,
			AU:        au,
		},
	}
}

func TestClient(t *testing.T) {
	Convey("Given a mock gateway", t, func() {
		mock := gatewaytest.New()
		srv := httptest.NewServer(mock.Handler())
		defer srv.Close()

		client := gateway.New(srv.URL, gateway.WithTimeout(time.Second))
		ctx := context.Background()

		Convey("When a session is created", func() {
			id, err := client.CreateSession(ctx, testConfig())

			Convey("Then the gateway echoes the session id", func() {
				So(err, ShouldBeNil)
				So(id, ShouldEqual, "sess-1")
			})

			Convey("And creating the same session id again is rejected", func() {
				_, err := client.CreateSession(ctx, testConfig())
				So(errors.Is(err, gateway.ErrGateway), ShouldBeTrue)
			})

			Convey("And telemetry submission returns one score per packet", func() {
				gameCtx := gamecontext.Derive(model.GameSituation{Inning: 9, Outs: 2, Bases: "111", ScoreDiff: 0})
				packets := []model.FeaturePacket{
					facePacket(id, model.AUIntensities{AU4: 1}),
					facePacket(id, model.AUIntensities{AU17_23_24: 2}),
				}

				scores, err := client.SubmitTelemetry(ctx, id, packets, gameCtx)
				So(err, ShouldBeNil)
				So(len(scores), ShouldEqual, 2)
				So(scores[0].Grit, ShouldBeBetweenOrEqual, 0, 100)
				So(scores[0].PressureContext, ShouldEqual, model.PressureCritical)

				Convey("And polling returns the retained scores", func() {
					polled, err := client.PollScores(ctx, id)
					So(err, ShouldBeNil)
					So(len(polled), ShouldEqual, 2)
				})
			})

			Convey("And events and cues are acknowledged", func() {
				So(client.LogEvent(ctx, id, "at_bat", "strikeout", map[string]any{"pitch": 5}), ShouldBeNil)
				So(client.SendCoachingCue(ctx, id, model.CoachingCue{
					Type:     "breathing",
					Severity: model.CueWarning,
					Message:  "slow your breathing",
					Priority: 2,
				}), ShouldBeNil)
				So(mock.EventsLogged(), ShouldEqual, 1)
				So(mock.CuesReceived(), ShouldEqual, 1)
			})

			Convey("And ending the session succeeds once", func() {
				So(client.EndSession(ctx, id), ShouldBeNil)
				So(mock.SessionsEnded(), ShouldEqual, 1)

				err := client.EndSession(ctx, id)
				So(errors.Is(err, gateway.ErrGateway), ShouldBeTrue)
			})
		})

		Convey("When operations target an unknown session", func() {
			_, err := client.PollScores(ctx, "ghost")

			Convey("Then the gateway rejection is surfaced as ErrGateway", func() {
				So(errors.Is(err, gateway.ErrGateway), ShouldBeTrue)
			})
		})

		Convey("When the gateway reports unhealthy", func() {
			mock.FailHealth(true)

			Convey("Then the health check fails", func() {
				So(errors.Is(client.HealthCheck(ctx), gateway.ErrGateway), ShouldBeTrue)
			})

			Convey("And recovers when health returns", func() {
				mock.FailHealth(false)
				So(client.HealthCheck(ctx), ShouldBeNil)
			})
		})

		Convey("When the gateway is down entirely", func() {
			mock.Down(true)

			Convey("Then every operation wraps ErrGateway", func() {
				_, err := client.CreateSession(ctx, testConfig())
				So(errors.Is(err, gateway.ErrGateway), ShouldBeTrue)
				So(errors.Is(client.HealthCheck(ctx), gateway.ErrGateway), ShouldBeTrue)
			})
		})

		Convey("When the endpoint is unreachable", func() {
			dead := gateway.New("http://127.0.0.1:1", gateway.WithTimeout(200*time.Millisecond))
			err := dead.HealthCheck(ctx)

			Convey("Then the transport fault wraps ErrGateway", func() {
				So(errors.Is(err, gateway.ErrGateway), ShouldBeTrue)
			})
		})
	})
}
