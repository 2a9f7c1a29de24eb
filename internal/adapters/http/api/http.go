// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	service "github.com/okian/momentum/internal/app"
	"github.com/okian/momentum/internal/adapters/repository"
	"github.com/okian/momentum/internal/domain/classify"
	"github.com/okian/momentum/internal/domain/insight"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/pkg/logger"
)

// Request limits.
const (
	// DefaultMaxLimit caps leaderboard queries when no limit is configured.
	DefaultMaxLimit = 100
	// DefaultMaxBodyBytes caps request bodies; it fits a full /evaluate history.
	DefaultMaxBodyBytes = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	Ingest(ctx context.Context, sample model.RawSample) (service.IngestResult, error)
	SetTaskType(ctx context.Context, domain, taskType string) (model.TaskType, error)

	Momentum(ctx context.Context, domain string) (model.MomentumScore, error)
	All(ctx context.Context) ([]model.MomentumScore, error)
	Leaderboard(ctx context.Context, n int) ([]repository.Entry, error)
	Insights(ctx context.Context) (service.Report, error)
	WeeklyReview(ctx context.Context) (insight.Review, error)

	Evaluate(ctx context.Context, req service.EvaluateRequest) (service.Evaluation, error)
	Classify(ctx context.Context, text string) (classify.Result, error)
}

// Option configures a Server.
type Option func(*Server)

// WithMaxLimit sets the largest accepted leaderboard limit.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMaxBodyBytes sets the largest accepted request body.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps         Dependencies
	maxLimit     int
	maxBodyBytes int64
	logger       logger.Logger
}

// NewServer creates a new API server. The global logger must be initialized
// unless WithLogger is given.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{deps: deps, maxLimit: DefaultMaxLimit, maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	return s
}

// Router builds the chi router with every route attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)

	r.Post("/samples", s.handlePostSample)
	r.Put("/domains/{domain}/task-type", s.handlePutTaskType)

	r.Get("/momentum", s.handleListMomentum)
	r.Get("/momentum/{domain}", s.handleGetMomentum)
	r.Get("/leaderboard", s.handleGetLeaderboard)
	r.Get("/insights", s.handleGetInsights)
	r.Get("/review", s.handleGetReview)

	r.Post("/evaluate", s.handleEvaluate)
	r.Post("/classify", s.handleClassify)
	return r
}

type ackResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status its kind maps to. Server errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path), logger.Error(err))
	}
	writeError(w, status, code, err)
}

// decode reads a JSON body of at most maxBodyBytes into v, rejecting
// unknown fields.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: %w", ErrBodyTooLarge, err)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
