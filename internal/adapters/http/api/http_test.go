package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/momentum/internal/adapters/http/api"
	"github.com/okian/momentum/internal/adapters/mq/queue"
	"github.com/okian/momentum/internal/adapters/repository"
	service "github.com/okian/momentum/internal/app"
	"github.com/okian/momentum/internal/domain/classify"
	"github.com/okian/momentum/internal/domain/insight"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	ingested   []model.RawSample
	ingestErr  error
	duplicate  bool
	taskTypes  map[string]string
	scores     map[string]model.MomentumScore
	entries    []repository.Entry
	limits     []int
	evaluated  []service.EvaluateRequest
	evaluation service.Evaluation
	evalErr    error
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		taskTypes: map[string]string{},
		scores:    map[string]model.MomentumScore{},
	}
}

func (m *mockDeps) GetStats() map[string]any {
	return map[string]any{"started": true, "domains": len(m.scores)}
}

func (m *mockDeps) Ingest(_ context.Context, s model.RawSample) (service.IngestResult, error) {
	if m.ingestErr != nil {
		return service.IngestResult{}, m.ingestErr
	}
	m.ingested = append(m.ingested, s)
	id := s.ID
	if id == "" {
		id = "generated"
	}
	return service.IngestResult{ID: id, Duplicate: m.duplicate}, nil
}

func (m *mockDeps) SetTaskType(_ context.Context, domain, taskType string) (model.TaskType, error) {
	tt, err := model.ParseTaskType(taskType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}
	m.taskTypes[domain] = taskType
	return tt, nil
}

func (m *mockDeps) Momentum(_ context.Context, domain string) (model.MomentumScore, error) {
	s, ok := m.scores[domain]
	if !ok {
		return model.MomentumScore{}, fmt.Errorf("%w: %s", repository.ErrNotFound, domain)
	}
	return s, nil
}

func (m *mockDeps) All(context.Context) ([]model.MomentumScore, error) {
	out := make([]model.MomentumScore, 0, len(m.scores))
	for _, s := range m.scores {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockDeps) Leaderboard(_ context.Context, n int) ([]repository.Entry, error) {
	m.limits = append(m.limits, n)
	if n > len(m.entries) {
		return m.entries, nil
	}
	return m.entries[:n], nil
}

func (m *mockDeps) Insights(context.Context) (service.Report, error) {
	return service.Report{
		Insights: []insight.Insight{{Tone: insight.Positive, Title: "Health is surging", Domain: "Health"}},
		Alerts:   []insight.Alert{},
	}, nil
}

func (m *mockDeps) WeeklyReview(context.Context) (insight.Review, error) {
	return insight.Review{Week: 42, Summary: "steady week"}, nil
}

func (m *mockDeps) Evaluate(_ context.Context, req service.EvaluateRequest) (service.Evaluation, error) {
	m.evaluated = append(m.evaluated, req)
	return m.evaluation, m.evalErr
}

func (m *mockDeps) Classify(_ context.Context, text string) (classify.Result, error) {
	return classify.Result{Domain: model.Health, TaskType: model.Compounding, Confidence: 0.85, Reasoning: text}, nil
}

func newTestServer(deps *mockDeps, opts ...api.Option) http.Handler {
	opts = append([]api.Option{api.WithLogger(discardLogger())}, opts...)
	return api.NewServer(deps, opts...).Router()
}

func discardLogger() logger.Logger {
	_ = logger.InitWithWriter(io.Discard)
	return logger.Named("api-test")
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

func TestPostSample(t *testing.T) {
	Convey("Given the API with a recording service", t, func() {
		deps := newMockDeps()
		h := newTestServer(deps)

		Convey("When a valid sample is posted", func() {
			rec := do(h, http.MethodPost, "/samples", `{"id":"s-1","domain":"Health","ts":"2024-03-01T08:00:00Z","value":0.7}`)

			Convey("Then it is accepted and forwarded", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(deps.ingested, ShouldHaveLength, 1)
				So(deps.ingested[0].Domain, ShouldEqual, model.Domain("Health"))
				So(deps.ingested[0].Value, ShouldEqual, 0.7)
				So(deps.ingested[0].Timestamp.Day(), ShouldEqual, 1)

				var ack map[string]any
				So(decodeBody(rec, &ack), ShouldBeNil)
				So(ack["status"], ShouldEqual, "accepted")
				So(ack["id"], ShouldEqual, "s-1")
			})
		})

		Convey("When a zero value is posted", func() {
			rec := do(h, http.MethodPost, "/samples", `{"domain":"Focus","ts":"2024-03-01T08:00:00Z","value":0}`)

			Convey("Then it is accepted", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(deps.ingested[0].Value, ShouldEqual, 0)
			})
		})

		Convey("When the service reports a duplicate", func() {
			deps.duplicate = true
			rec := do(h, http.MethodPost, "/samples", `{"id":"s-1","domain":"Health","ts":"2024-03-01T08:00:00Z","value":0.7}`)

			Convey("Then it answers 200 with the duplicate flag", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var ack map[string]any
				So(decodeBody(rec, &ack), ShouldBeNil)
				So(ack["duplicate"], ShouldEqual, true)
			})
		})

		Convey("When the body is invalid", func() {
			cases := []string{
				`{"ts":"2024-03-01T08:00:00Z","value":1}`,
				`{"domain":"Health","value":1}`,
				`{"domain":"Health","ts":"yesterday","value":1}`,
				`{"domain":"Health","ts":"2024-03-01T08:00:00Z"}`,
				`{"domain":"Health","ts":"2024-03-01T08:00:00Z","value":1,"extra":true}`,
				`not json`,
			}

			Convey("Then each is rejected with 400", func() {
				for _, body := range cases {
					rec := do(h, http.MethodPost, "/samples", body)
					So(rec.Code, ShouldEqual, http.StatusBadRequest)
				}
				So(deps.ingested, ShouldBeEmpty)
			})
		})

		Convey("When the queue is full", func() {
			deps.ingestErr = fmt.Errorf("enqueue: %w", queue.ErrFull)
			rec := do(h, http.MethodPost, "/samples", `{"domain":"Health","ts":"2024-03-01T08:00:00Z","value":1}`)

			Convey("Then it answers 429", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			})
		})

		Convey("When the service is not running", func() {
			deps.ingestErr = service.ErrNotStarted
			rec := do(h, http.MethodPost, "/samples", `{"domain":"Health","ts":"2024-03-01T08:00:00Z","value":1}`)

			Convey("Then it answers 503", func() {
				So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When the service rejects the sample", func() {
			deps.ingestErr = fmt.Errorf("%w: %w", service.ErrInvalidSample, model.ErrInvalidDomain)
			rec := do(h, http.MethodPost, "/samples", `{"domain":"  ","ts":"2024-03-01T08:00:00Z","value":1}`)

			Convey("Then it answers 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestBodyLimit(t *testing.T) {
	Convey("Given the API with a 1 KiB body limit", t, func() {
		deps := newMockDeps()
		h := newTestServer(deps, api.WithMaxBodyBytes(1024))
		sample := `{"domain":"Health","ts":"2024-03-01T08:00:00Z","value":1}`

		Convey("When a body within the limit is posted", func() {
			rec := do(h, http.MethodPost, "/samples", sample)
			So(rec.Code, ShouldEqual, http.StatusAccepted)
		})

		Convey("When an oversized sample is posted", func() {
			rec := do(h, http.MethodPost, "/samples", strings.Repeat(" ", 4096)+sample)

			Convey("Then it answers 413 without ingesting", func() {
				So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				var body map[string]string
				So(decodeBody(rec, &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "body_too_large")
				So(deps.ingested, ShouldBeEmpty)
			})
		})

		Convey("When an oversized history is evaluated", func() {
			values := strings.TrimSuffix(strings.Repeat("0.5,", 2000), ",")
			rec := do(h, http.MethodPost, "/evaluate", `{"values":[`+values+`]}`)

			Convey("Then it is rejected before evaluation", func() {
				So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(deps.evaluated, ShouldBeEmpty)
			})
		})
	})
}

func TestMomentumRoutes(t *testing.T) {
	Convey("Given the API with one scored domain", t, func() {
		deps := newMockDeps()
		deps.scores["Health"] = model.MomentumScore{Domain: "Health", Velocity: 0.2, MomentumScore: 63, Phase: model.Ramp}
		h := newTestServer(deps)

		Convey("When the domain is requested", func() {
			rec := do(h, http.MethodGet, "/momentum/Health", "")

			Convey("Then its score is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got model.MomentumScore
				So(decodeBody(rec, &got), ShouldBeNil)
				So(got.MomentumScore, ShouldEqual, 63)
				So(got.Phase, ShouldEqual, model.Ramp)
			})
		})

		Convey("When an unknown domain is requested", func() {
			rec := do(h, http.MethodGet, "/momentum/Sleep", "")

			Convey("Then it answers 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				var body map[string]string
				So(decodeBody(rec, &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When all scores are listed", func() {
			rec := do(h, http.MethodGet, "/momentum", "")

			Convey("Then the list is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got []model.MomentumScore
				So(decodeBody(rec, &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
			})
		})

		Convey("When a task type is set", func() {
			rec := do(h, http.MethodPut, "/domains/Health/task-type", `{"task_type":"Milestone"}`)

			Convey("Then the service receives it", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.taskTypes["Health"], ShouldEqual, "Milestone")
			})
		})

		Convey("When a task type is set in lower case", func() {
			rec := do(h, http.MethodPut, "/domains/Health/task-type", `{"task_type":"milestone"}`)

			Convey("Then it is accepted like the CLI accepts it", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string]string
				So(decodeBody(rec, &body), ShouldBeNil)
				So(body["task_type"], ShouldEqual, "Milestone")
			})
		})

		Convey("When an unknown task type is set", func() {
			rec := do(h, http.MethodPut, "/domains/Health/task-type", `{"task_type":"Sprint"}`)

			Convey("Then it answers 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.taskTypes, ShouldBeEmpty)
			})
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given the API with a leaderboard capped at 2", t, func() {
		deps := newMockDeps()
		deps.entries = []repository.Entry{
			{Rank: 1, Domain: "Health", Velocity: 0.3},
			{Rank: 2, Domain: "Focus", Velocity: 0.1},
		}
		h := newTestServer(deps, api.WithMaxLimit(2))

		Convey("When a limit within the cap is requested", func() {
			rec := do(h, http.MethodGet, "/leaderboard?limit=1", "")

			Convey("Then the top entries are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got []repository.Entry
				So(decodeBody(rec, &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Domain, ShouldEqual, model.Domain("Health"))
			})
		})

		Convey("When no limit is given", func() {
			rec := do(h, http.MethodGet, "/leaderboard", "")

			Convey("Then the cap is used", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.limits, ShouldResemble, []int{2})
			})
		})

		Convey("When the limit exceeds the cap", func() {
			rec := do(h, http.MethodGet, "/leaderboard?limit=3", "")

			Convey("Then it answers 400 limit_exceeded", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				var body map[string]string
				So(decodeBody(rec, &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "limit_exceeded")
				So(deps.limits, ShouldBeEmpty)
			})
		})

		Convey("When the limit is malformed", func() {
			for _, q := range []string{"0", "-1", "ten"} {
				rec := do(h, http.MethodGet, "/leaderboard?limit="+q, "")
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestEvaluateAndClassify(t *testing.T) {
	Convey("Given the API", t, func() {
		deps := newMockDeps()
		deps.evaluation = service.Evaluation{MomentumScore: 63, Phase: model.PhaseRecord{Phase: model.Ramp, Confidence: 0.8}}
		h := newTestServer(deps)

		Convey("When a history is evaluated", func() {
			rec := do(h, http.MethodPost, "/evaluate", `{"values":[0.1,0.2,0.4],"events":[true,true,true],"task_type":"Compounding"}`)

			Convey("Then the evaluation is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.evaluated, ShouldHaveLength, 1)
				So(deps.evaluated[0].TaskType, ShouldEqual, model.Compounding)
				var got service.Evaluation
				So(decodeBody(rec, &got), ShouldBeNil)
				So(got.MomentumScore, ShouldEqual, 63)
			})
		})

		Convey("When the task type is given in any case", func() {
			rec := do(h, http.MethodPost, "/evaluate", `{"values":[1,2],"task_type":" MILESTONE "}`)

			Convey("Then it is normalized before evaluation", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.evaluated[0].TaskType, ShouldEqual, model.Milestone)
			})
		})

		Convey("When events are omitted", func() {
			rec := do(h, http.MethodPost, "/evaluate", `{"values":[1,0]}`)

			Convey("Then the request passes through without events", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.evaluated[0].Events, ShouldBeNil)
			})
		})

		Convey("When the history is invalid", func() {
			for _, body := range []string{
				`{"values":[]}`,
				`{"values":[1,2],"events":[true]}`,
				`{"values":[1],"task_type":"Sprint"}`,
			} {
				rec := do(h, http.MethodPost, "/evaluate", body)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.evaluated, ShouldBeEmpty)
		})

		Convey("When the pipeline rejects the input", func() {
			deps.evalErr = fmt.Errorf("%w: boom", service.ErrInvalidInput)
			rec := do(h, http.MethodPost, "/evaluate", `{"values":[1]}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the pipeline fails unexpectedly", func() {
			deps.evalErr = errors.New("boom")
			rec := do(h, http.MethodPost, "/evaluate", `{"values":[1]}`)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When text is classified", func() {
			rec := do(h, http.MethodPost, "/classify", `{"text":"morning run"}`)

			Convey("Then the classification is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got classify.Result
				So(decodeBody(rec, &got), ShouldBeNil)
				So(got.Domain, ShouldEqual, model.Health)
			})
		})

		Convey("When empty text is classified", func() {
			rec := do(h, http.MethodPost, "/classify", `{"text":""}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestReadOnlyRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newTestServer(newMockDeps())

		Convey("Then insights, review, stats and metrics are served", func() {
			rec := do(h, http.MethodGet, "/insights", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var report service.Report
			So(decodeBody(rec, &report), ShouldBeNil)
			So(report.Insights, ShouldHaveLength, 1)

			rec = do(h, http.MethodGet, "/review", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var review insight.Review
			So(decodeBody(rec, &review), ShouldBeNil)
			So(review.Week, ShouldEqual, 42)

			rec = do(h, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(decodeBody(rec, &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)

			rec = do(h, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Then unknown methods are rejected by the router", func() {
			rec := do(h, http.MethodDelete, "/samples", "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestErrorWrapping(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("cause")

		Convey("Then the kind and the cause are both reachable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: cause")
		})

		Convey("Then Wrap of nil is nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
		})
	})
}
