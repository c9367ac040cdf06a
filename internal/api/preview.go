package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/marketing-site/internal/preview"
)

// enablePreview handles GET /api/sanity/preview?secret=&slug=&type=.
func (s *Server) enablePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !s.deps.Preview.Authorize(q.Get("secret")) {
		s.logger.Warn("preview rejected: invalid secret", zap.String("ip", clientIP(r)))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
		return
	}
	http.SetCookie(w, s.deps.Preview.EnableCookie())
	http.Redirect(w, r, preview.DocumentPath(q.Get("type"), q.Get("slug")), http.StatusTemporaryRedirect)
}

// exitPreview clears the preview cookie and returns to a site-relative page.
func (s *Server) exitPreview(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.deps.Preview.ClearCookie())
	http.Redirect(w, r, preview.SafeRedirect(r.URL.Query().Get("redirect")), http.StatusTemporaryRedirect)
}
