package api

import (
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/okian/momentum/internal/domain/model"
)

// sampleRequest mirrors the body of POST /samples.
type sampleRequest struct {
	ID     string   `json:"id"`
	Domain string   `json:"domain"`
	TS     string   `json:"ts"`
	Value  *float64 `json:"value"`
}

func (req sampleRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ID, validation.Length(0, 128), is.PrintableASCII),
		validation.Field(&req.Domain, validation.Required, validation.Length(1, 64)),
		validation.Field(&req.TS, validation.Required, validation.By(rfc3339)),
		validation.Field(&req.Value, validation.NotNil),
	)
}

func rfc3339(value any) error {
	s, _ := value.(string)
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return errors.New("must be RFC3339")
	}
	return nil
}

func (req sampleRequest) sample() model.RawSample {
	ts, _ := time.Parse(time.RFC3339, req.TS)
	return model.RawSample{
		ID:        req.ID,
		Domain:    model.Domain(req.Domain),
		Timestamp: ts,
		Value:     *req.Value,
	}
}

// handlePostSample handles POST /samples. New samples are acknowledged with
// 202, duplicates with 200.
func (s *Server) handlePostSample(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_sample"
	var req sampleRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := s.deps.Ingest(r.Context(), req.sample())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{ID: res.ID, Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{ID: res.ID, Status: "accepted"})
}
