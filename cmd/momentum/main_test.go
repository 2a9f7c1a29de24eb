package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/momentum/internal/app"
	"github.com/okian/momentum/internal/config"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const history = `values: [1, 2, 3, 4, 5]
events: [true, true, true, true, true]
task_type: Compounding
`

func writeHistory(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write history: %v", err)
	}
	return path
}

func runEvaluate(args ...string) (service.Evaluation, error) {
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	cmd.ErrWriter = io.Discard

	var res service.Evaluation
	if err := cmd.Run(context.Background(), append([]string{"momentum", "evaluate"}, args...)); err != nil {
		return res, err
	}
	err := json.Unmarshal(out.Bytes(), &res)
	return res, err
}

func TestEvaluateCommand(t *testing.T) {
	convey.Convey("Given a rising five day history file", t, func() {
		path := writeHistory(t, history)

		convey.Convey("When it is evaluated", func() {
			res, err := runEvaluate("--file", path)

			convey.Convey("Then one record per day is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Features, convey.ShouldHaveLength, 5)
				convey.So(res.TaskType, convey.ShouldEqual, model.Compounding)
				convey.So(res.Latest.Velocity, convey.ShouldBeGreaterThan, 0)
				convey.So(res.Latest.Streak, convey.ShouldEqual, 5)
				convey.So(res.MomentumScore, convey.ShouldBeBetweenOrEqual, 0, 100)
			})
		})

		convey.Convey("When the task type is overridden with Milestone", func() {
			res, err := runEvaluate("--file", path, "--task-type", "Milestone")

			convey.Convey("Then positive velocity scores 100", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.TaskType, convey.ShouldEqual, model.Milestone)
				convey.So(res.MomentumScore, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the override is unknown", func() {
			_, err := runEvaluate("--file", path, "--task-type", "Sprint")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given an unreadable history", t, func() {
		convey.Convey("When the file is missing", func() {
			_, err := runEvaluate("--file", filepath.Join(t.TempDir(), "missing.yaml"))
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the history is empty", func() {
			_, err := runEvaluate("--file", writeHistory(t, "values: []\n"))
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When events do not match values", func() {
			_, err := runEvaluate("--file", writeHistory(t, "values: [1, 2]\nevents: [true]\n"))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServiceOptions(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		convey.So(logger.InitWithWriter(io.Discard), convey.ShouldBeNil)
		cfg := config.New(context.Background())
		cfg.RecomputeInterval = time.Minute
		cfg.WorkerCount = 3

		convey.Convey("When a service is built from it", func() {
			svc, err := service.New(serviceOptions(cfg, logger.Get())...)

			convey.Convey("Then the settings are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 3)
				convey.So(stats["queueSize"], convey.ShouldEqual, cfg.EventQueueSize)
				convey.So(stats["started"], convey.ShouldBeFalse)
				updateServiceMetrics(stats)
			})
		})

		convey.Convey("When a weight is negative", func() {
			cfg.Weights.Z = -1
			_, err := service.New(serviceOptions(cfg, logger.Get())...)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
