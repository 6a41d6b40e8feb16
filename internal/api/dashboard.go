package api

import (
	"net/http"

	"go.uber.org/zap"

	"fundingScope/internal/aggregate"
	"fundingScope/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

// Dashboard handles GET /api/dashboard. Failures are reported as
// {"error": "..."} with status 200.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, errorBody{Error: storage.ErrNotConfigured.Error()})
		return
	}

	events, err := s.store.RecentEvents(r.Context(), s.fetchLimit)
	if err != nil {
		s.logger.Warn("load dashboard events failed", zap.Error(err))
		writeJSON(w, http.StatusOK, errorBody{Error: err.Error()})
		return
	}

	dashboard, stats := aggregate.Dashboard(events, s.now())
	s.logger.Debug("dashboard computed",
		zap.Int("rows", stats.Rows),
		zap.Int("malformed", stats.Malformed),
		zap.Int("undated", stats.Undated),
		zap.Int("current", stats.Current),
		zap.Int("previous", stats.Previous),
	)
	writeJSON(w, http.StatusOK, dashboard)
}
