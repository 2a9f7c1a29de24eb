package api

import (
	"net/http"

	"github.com/okian/momentum/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handleHealth serves GET /healthz with the Prometheus exposition of the
// service registry.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
