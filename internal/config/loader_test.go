package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/momentum/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.EMAAlpha, convey.ShouldEqual, 0.3)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MOMENTUM_ADDR", ":8080")
			_ = os.Setenv("MOMENTUM_QUEUE_SIZE", "500")
			_ = os.Setenv("MOMENTUM_WORKER_COUNT", "3")
			_ = os.Setenv("MOMENTUM_EMA_ALPHA", "0.5")
			_ = os.Setenv("MOMENTUM_WEIGHTS__VELOCITY", "0.6")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.EMAAlpha, convey.ShouldEqual, 0.5)
				convey.So(cfg.Weights.Velocity, convey.ShouldEqual, 0.6)
				convey.So(cfg.Weights.Streak, convey.ShouldEqual, 0.1)
			})
		})

		convey.Convey("When durations and limits come from env", func() {
			_ = os.Setenv("MOMENTUM_RECOMPUTE_INTERVAL", "15m")
			_ = os.Setenv("MOMENTUM_HISTORY_LIMIT", "90")
			_ = os.Setenv("MOMENTUM_MAX_SAMPLE_AGE_DAYS", "365")
			_ = os.Setenv("MOMENTUM_MAX_FUTURE_SKEW", "2h")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are decoded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.RecomputeInterval, convey.ShouldEqual, 15*time.Minute)
				convey.So(cfg.HistoryLimit, convey.ShouldEqual, 90)
				convey.So(cfg.MaxSampleAgeDays, convey.ShouldEqual, 365)
				convey.So(cfg.MaxFutureSkew, convey.ShouldEqual, 2*time.Hour)
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			tmpFile := createTempConfigFile(`
# comment
addr: ":9090"
queue_size: 300
timezone: "Europe/Berlin"
weights:
  velocity: 0.4
  z: 0.3
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MOMENTUM_CONFIG", tmpFile)
			_ = os.Setenv("MOMENTUM_ADDR", ":8081")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over file and file wins over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.Timezone, convey.ShouldEqual, "Europe/Berlin")
				convey.So(cfg.Weights.Velocity, convey.ShouldEqual, 0.4)
				convey.So(cfg.Weights.Z, convey.ShouldEqual, 0.3)
				convey.So(cfg.Weights.Acceleration, convey.ShouldEqual, 0.2)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.LoadFile(ctx, tmpFile)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			cfg, err := config.LoadFile(ctx, "/non/existent/file.yaml")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("MOMENTUM_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr")
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MOMENTUM_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When alpha from env is out of range", func() {
			_ = os.Setenv("MOMENTUM_EMA_ALPHA", "2")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"MOMENTUM_CONFIG",
		"MOMENTUM_ADDR",
		"MOMENTUM_QUEUE_SIZE",
		"MOMENTUM_WORKER_COUNT",
		"MOMENTUM_EMA_ALPHA",
		"MOMENTUM_WEIGHTS__VELOCITY",
		"MOMENTUM_RECOMPUTE_INTERVAL",
		"MOMENTUM_HISTORY_LIMIT",
		"MOMENTUM_MAX_SAMPLE_AGE_DAYS",
		"MOMENTUM_MAX_FUTURE_SKEW",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "momentum-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
