package api

import (
	"net/http"
	"strconv"
)

// handleGetLeaderboard handles GET /leaderboard?limit=N. A missing limit
// returns up to the configured maximum.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := s.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			s.fail(w, r, NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	if n > s.maxLimit {
		s.fail(w, r, NewKind(op, ErrLimitExceeded))
		return
	}
	entries, err := s.deps.Leaderboard(r.Context(), n)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
