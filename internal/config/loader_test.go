package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/grit/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		for _, key := range []string{"GRIT_CONFIG", "GRIT_TARGET_FPS", "GRIT_GATEWAY_URL", "GRIT_BATCH_SIZE"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		Convey("When no overrides are present", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.TargetFPS, ShouldEqual, 30)
				So(cfg.BatchSize, ShouldEqual, 10)
				So(cfg.PollIntervalMS, ShouldEqual, 1000)
				So(cfg.HealthIntervalMS, ShouldEqual, 30000)
				So(cfg.BaselineSamples, ShouldEqual, 150)
			})
		})

		Convey("When env vars override defaults", func() {
			t.Setenv("GRIT_TARGET_FPS", "60")
			t.Setenv("GRIT_GATEWAY_URL", "http://gateway.local:8080")

			cfg, err := config.Load(context.Background())

			Convey("Then the env values win", func() {
				So(err, ShouldBeNil)
				So(cfg.TargetFPS, ShouldEqual, 60)
				So(cfg.GatewayURL, ShouldEqual, "http://gateway.local:8080")
			})
		})

		Convey("When a config file is layered under env", func() {
			path := filepath.Join(t.TempDir(), "grit.yaml")
			So(os.WriteFile(path, []byte("target_fps: 24\nbatch_size: 5\n"), 0o600), ShouldBeNil)
			t.Setenv("GRIT_CONFIG", path)
			t.Setenv("GRIT_TARGET_FPS", "48")

			cfg, err := config.Load(context.Background())

			Convey("Then file beats defaults and env beats file", func() {
				So(err, ShouldBeNil)
				So(cfg.BatchSize, ShouldEqual, 5)
				So(cfg.TargetFPS, ShouldEqual, 48)
			})
		})

		Convey("When the config file is missing", func() {
			t.Setenv("GRIT_CONFIG", "/nonexistent/grit.yaml")
			_, err := config.Load(context.Background())

			Convey("Then loading fails with the load kind", func() {
				So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
			})
		})

		Convey("When a value is invalid", func() {
			t.Setenv("GRIT_BATCH_SIZE", "0")
			_, err := config.Load(context.Background())

			Convey("Then validation fails with the invalid kind", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
