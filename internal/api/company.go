package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fundingScope/internal/model"
	"fundingScope/internal/slug"
	"fundingScope/internal/storage"
)

const companyEventLimit = 200

// Company handles GET /api/companies/{slug}.
func (s *Server) Company(w http.ResponseWriter, r *http.Request) {
	companySlug := chi.URLParam(r, "slug")
	name := slug.Unslugify(companySlug)

	profile := model.CompanyProfile{
		Company: model.Company{Name: name, Slug: companySlug, BioStatus: model.BioAbsent},
		Events:  []model.FundingEvent{},
		Sources: []string{},
	}

	if s.store == nil {
		profile.Error = errorText(storage.ErrNotConfigured)
		w.Header().Set("Cache-Control", cacheNoStore)
		writeJSON(w, http.StatusOK, profile)
		return
	}

	events, err := s.store.CompanyEvents(r.Context(), name, companyEventLimit)
	if err != nil {
		s.logger.Warn("load company events failed", zap.String("slug", companySlug), zap.Error(err))
		profile.Error = errorText(err)
		w.Header().Set("Cache-Control", cacheNoStore)
		writeJSON(w, http.StatusOK, profile)
		return
	}

	record, ok, err := s.store.CompanyProfile(r.Context(), companySlug)
	switch {
	case err != nil:
		s.logger.Debug("company row unavailable", zap.String("slug", companySlug), zap.Error(err))
	case ok && record.Bio != nil && *record.Bio != "":
		profile.Company.Bio = record.Bio
		profile.Company.BioStatus = model.BioReady
	case ok:
		profile.Company.BioStatus = model.BioPending
	}

	fillProfile(&profile, events)

	cache := cacheShort
	if profile.Company.BioStatus == model.BioPending {
		cache = cacheNoStore
	}
	w.Header().Set("Cache-Control", cache)
	writeJSON(w, http.StatusOK, profile)
}

// fillProfile derives the totals from events in canonical order.
func fillProfile(profile *model.CompanyProfile, events []model.FundingEvent) {
	if len(events) == 0 {
		return
	}
	profile.Events = withCompanySlugs(events)

	seen := make(map[string]struct{})
	for _, e := range events {
		profile.TotalRaised += e.AmountRaisedUSD.Float()
		source := model.Deref(e.SourceURL)
		if source == "" {
			continue
		}
		if _, ok := seen[source]; ok {
			continue
		}
		seen[source] = struct{}{}
		profile.Sources = append(profile.Sources, source)
	}

	latest := events[0]
	profile.LastRound = latest.FundingRound
	profile.LastRoundDate = latest.FundingDate
	if latest.StartupName != "" {
		profile.Company.Name = latest.StartupName
	}
}
