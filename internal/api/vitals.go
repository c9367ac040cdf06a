package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/JakeFAU/marketing-site/internal/vitals"
)

// recordVitals accepts a single sample or an array of samples. The batch is
// rejected as a whole when any sample is invalid.
func (s *Server) recordVitals(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Invalid JSON body"})
		return
	}

	var samples []vitals.Sample
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &samples); err != nil {
			writeJSON(w, http.StatusBadRequest, response{Message: "Invalid JSON body"})
			return
		}
	} else {
		var one vitals.Sample
		if err := json.Unmarshal(trimmed, &one); err != nil {
			writeJSON(w, http.StatusBadRequest, response{Message: "Invalid JSON body"})
			return
		}
		samples = append(samples, one)
	}

	for _, sample := range samples {
		if err := sample.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, response{Message: err.Error()})
			return
		}
	}
	for _, sample := range samples {
		if err := s.deps.Vitals.Record(sample); err != nil {
			writeJSON(w, http.StatusBadRequest, response{Message: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "recorded": len(samples)})
}

func (s *Server) reportVitals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"metrics": s.deps.Vitals.Summary(),
	})
}
