package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const healthTimeout = 3 * time.Second

type healthResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     any    `json:"error,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// health probes storage connectivity.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ts := s.now().Format(time.RFC3339)
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Success: true, Status: "healthy", Timestamp: ts})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := s.deps.Health.Ping(ctx); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, healthResponse{
			Status:    "unhealthy",
			Timestamp: ts,
			Error:     s.detail(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Success: true, Status: "healthy", Timestamp: ts})
}
