package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"fundingScope/internal/model"
	"fundingScope/internal/query"
	"fundingScope/internal/slug"
	"fundingScope/internal/storage"
)

// FundingEvents handles GET /api/funding-events. The envelope is always
// well-formed and the status is always 200.
func (s *Server) FundingEvents(w http.ResponseWriter, r *http.Request) {
	params, err := query.ParseParams(r.URL.Query())
	page := model.EventPage{
		Events:      []model.FundingEvent{},
		Page:        params.Number,
		Limit:       params.Limit,
		LastUpdated: s.now().UTC().Format(time.RFC3339),
	}

	switch {
	case err != nil:
		page.Error = errorText(err)
	case s.store == nil:
		page.Error = errorText(storage.ErrNotConfigured)
	default:
		result, err := s.store.QueryEvents(r.Context(), params)
		if err != nil {
			s.logger.Warn("query funding events failed", zap.Error(err))
			page.Error = errorText(err)
			break
		}
		if result.Events != nil {
			page.Events = withCompanySlugs(result.Events)
		}
		page.Count = result.Count
	}

	writeJSON(w, http.StatusOK, page)
}

// withCompanySlugs sets CompanySlug from each startup name.
func withCompanySlugs(events []model.FundingEvent) []model.FundingEvent {
	for i := range events {
		events[i].CompanySlug = slug.Slugify(events[i].StartupName)
	}
	return events
}
