package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/marketing-site/internal/metrics"
	"github.com/JakeFAU/marketing-site/internal/revalidate"
)

type revalidateResponse struct {
	Revalidated bool     `json:"revalidated"`
	Message     string   `json:"message"`
	Now         int64    `json:"now"`
	Paths       []string `json:"paths,omitempty"`
}

// authorizedWebhook compares the bearer token with the configured secret in
// constant time. An unconfigured secret rejects every call.
func (s *Server) authorizedWebhook(r *http.Request) bool {
	secret := s.cfg.Revalidate.Secret
	if secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(secret)) == 1
}

func (s *Server) revalidate(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedWebhook(r) {
		metrics.ObserveRevalidation("", metrics.OutcomeDenied)
		s.logger.Warn("revalidate rejected: invalid secret", zap.String("ip", clientIP(r)))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid secret"})
		return
	}

	var req revalidate.Request
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.ObserveRevalidation("", metrics.OutcomeInvalid)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid payload"})
		return
	}

	paths := s.table.Paths(req.Type, string(req.Slug))
	if s.deps.Invalidator != nil {
		if err := s.deps.Invalidator.Invalidate(r.Context(), paths); err != nil {
			metrics.ObserveRevalidation(req.Type, metrics.OutcomeError)
			s.logger.Error("revalidate failed",
				zap.String("type", req.Type),
				zap.Strings("paths", paths),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error revalidating"})
			return
		}
	}

	metrics.ObserveRevalidation(req.Type, metrics.OutcomeOK)
	s.logger.Info("revalidated", zap.String("type", req.Type), zap.Strings("paths", paths))
	writeJSON(w, http.StatusOK, revalidateResponse{
		Revalidated: true,
		Message:     fmt.Sprintf("Revalidated %d path(s) for %s", len(paths), typeLabel(req.Type)),
		Now:         s.now().UnixMilli(),
		Paths:       paths,
	})
}

func typeLabel(docType string) string {
	if docType == "" {
		return "unknown document"
	}
	return docType
}
