package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	service "github.com/okian/momentum/internal/app"
	"github.com/okian/momentum/internal/domain/model"
)

// maxEvaluateValues bounds the history accepted by POST /evaluate.
const maxEvaluateValues = 10_000

type evaluateRequest struct {
	Values   []float64 `json:"values"`
	Events   []bool    `json:"events"`
	TaskType string    `json:"task_type"`
}

func (req evaluateRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Values, validation.Required, validation.Length(1, maxEvaluateValues)),
		validation.Field(&req.Events, validation.When(req.Events != nil, validation.Length(len(req.Values), len(req.Values)))),
		validation.Field(&req.TaskType, validation.When(req.TaskType != "", validation.By(taskType))),
	)
}

// handleEvaluate handles POST /evaluate: a stateless pipeline run over the
// posted daily history.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate"
	var req evaluateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	var tt model.TaskType
	if req.TaskType != "" {
		tt, _ = model.ParseTaskType(req.TaskType)
	}
	res, err := s.deps.Evaluate(r.Context(), service.EvaluateRequest{
		Values:   req.Values,
		Events:   req.Events,
		TaskType: tt,
	})
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type classifyRequest struct {
	Text string `json:"text"`
}

func (req classifyRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Text, validation.Required, validation.Length(1, 2000)),
	)
}

// handleClassify handles POST /classify.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	var req classifyRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := s.deps.Classify(r.Context(), req.Text)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
