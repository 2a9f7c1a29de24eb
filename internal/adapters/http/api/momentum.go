package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/okian/momentum/internal/domain/model"
)

type taskTypeRequest struct {
	TaskType string `json:"task_type"`
}

func (req taskTypeRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.TaskType, validation.Required, validation.By(taskType)),
	)
}

// taskType accepts any spelling model.ParseTaskType accepts.
func taskType(value any) error {
	name, _ := value.(string)
	if _, err := model.ParseTaskType(name); err != nil {
		return validation.NewError("validation_task_type", "must be a known task type")
	}
	return nil
}

type taskTypeResponse struct {
	Domain   string         `json:"domain"`
	TaskType model.TaskType `json:"task_type"`
}

// handlePutTaskType handles PUT /domains/{domain}/task-type.
func (s *Server) handlePutTaskType(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_task_type"
	domain := chi.URLParam(r, "domain")
	var req taskTypeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	tt, err := s.deps.SetTaskType(r.Context(), domain, req.TaskType)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, taskTypeResponse{Domain: domain, TaskType: tt})
}

// handleListMomentum handles GET /momentum.
func (s *Server) handleListMomentum(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_momentum"
	scores, err := s.deps.All(r.Context())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if scores == nil {
		scores = []model.MomentumScore{}
	}
	writeJSON(w, http.StatusOK, scores)
}

// handleGetMomentum handles GET /momentum/{domain}.
func (s *Server) handleGetMomentum(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_momentum"
	score, err := s.deps.Momentum(r.Context(), chi.URLParam(r, "domain"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, score)
}
