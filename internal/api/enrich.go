package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type enrichResponse struct {
	Queued            bool   `json:"queued"`
	Slug              string `json:"slug,omitempty"`
	Mode              string `json:"mode,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Enrich handles POST /api/companies/{slug}/enrich.
func (s *Server) Enrich(w http.ResponseWriter, r *http.Request) {
	companySlug := chi.URLParam(r, "slug")
	w.Header().Set("Cache-Control", cacheNoStore)

	outcome := s.enrich.Trigger(r.Context(), clientIP(r), companySlug)
	switch {
	case outcome.Limited():
		w.Header().Set("Retry-After", strconv.Itoa(outcome.RetryAfterSeconds))
		writeJSON(w, http.StatusTooManyRequests, enrichResponse{RetryAfterSeconds: outcome.RetryAfterSeconds})
	case outcome.Err != nil:
		writeJSON(w, http.StatusInternalServerError, enrichResponse{Error: outcome.Err.Error()})
	default:
		writeJSON(w, http.StatusAccepted, enrichResponse{Queued: true, Slug: companySlug, Mode: outcome.Mode})
	}
}

// clientIP is the first X-Forwarded-For entry, or "unknown".
func clientIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return "unknown"
}
