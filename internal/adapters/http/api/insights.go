package api

import "net/http"

// handleGetInsights handles GET /insights.
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Insights(r.Context())
	if err != nil {
		s.fail(w, r, Wrap("api.get_insights", err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleGetReview handles GET /review.
func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	review, err := s.deps.WeeklyReview(r.Context())
	if err != nil {
		s.fail(w, r, Wrap("api.get_review", err))
		return
	}
	writeJSON(w, http.StatusOK, review)
}
