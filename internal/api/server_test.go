package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundingScope/internal/enrich"
	"fundingScope/internal/model"
	"fundingScope/internal/query"
	"fundingScope/internal/storage"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	events    []model.FundingEvent
	page      storage.Page
	companies map[string]model.CompanyRecord
	err       error
	pingErr   error

	lastParams query.Params
	lastName   string
	lastLimit  int
}

var _ storage.EventStore = (*fakeStore)(nil)

func (f *fakeStore) QueryEvents(_ context.Context, params query.Params) (storage.Page, error) {
	f.lastParams = params
	return f.page, f.err
}

func (f *fakeStore) RecentEvents(_ context.Context, limit int) ([]model.FundingEvent, error) {
	f.lastLimit = limit
	return f.events, f.err
}

func (f *fakeStore) CompanyEvents(_ context.Context, name string, limit int) ([]model.FundingEvent, error) {
	f.lastName, f.lastLimit = name, limit
	return f.events, f.err
}

func (f *fakeStore) CompanyProfile(_ context.Context, slug string) (model.CompanyRecord, bool, error) {
	record, ok := f.companies[slug]
	return record, ok, nil
}

func (f *fakeStore) UpsertEvents(context.Context, []model.FundingEvent) error { return f.err }

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) Close() {}

func newTestServer(store storage.EventStore, svc *enrich.Service) http.Handler {
	return NewServer(Options{Store: store, Enrich: svc, Now: func() time.Time { return testNow }}).Routes()
}

func do(t *testing.T, h http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func event(name, fundingDate string, amount float64) model.FundingEvent {
	return model.FundingEvent{
		ID:              name,
		StartupName:     name,
		SubSector:       model.StringPtr("Solar"),
		LeadInvestor:    model.StringPtr("Lowercarbon"),
		FundingRound:    model.StringPtr("Series A"),
		AmountRaisedUSD: model.NewAmount(amount),
		FundingDate:     model.StringPtr(fundingDate),
		SourceURL:       model.StringPtr("https://news.example.com/" + name),
	}
}

func TestDashboard(t *testing.T) {
	store := &fakeStore{events: []model.FundingEvent{
		event("Alpha", "2025-06-10", 100),
		event("Bravo", "2025-05-01", 50),
	}}
	rec := do(t, newTestServer(store, nil), http.MethodGet, "/api/dashboard", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[model.Dashboard](t, rec)
	assert.Equal(t, "$100", body.Metrics.TotalFunding)
	assert.Equal(t, 100.0, body.Metrics.TotalFundingDelta)
	assert.Equal(t, "Solar", body.Metrics.HighestSector)
	assert.Equal(t, DefaultFetchLimit, store.lastLimit)
}

func TestDashboardStoreError(t *testing.T) {
	rec := do(t, newTestServer(&fakeStore{err: errors.New("relation does not exist")}, nil), http.MethodGet, "/api/dashboard", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"relation does not exist"}`, rec.Body.String())
}

func TestDashboardWithoutStore(t *testing.T) {
	rec := do(t, newTestServer(nil, nil), http.MethodGet, "/api/dashboard", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"store not configured"}`, rec.Body.String())
}

func TestFundingEvents(t *testing.T) {
	store := &fakeStore{page: storage.Page{Events: []model.FundingEvent{event("Alpha", "2025-01-10", 5)}, Count: 15}}
	rec := do(t, newTestServer(store, nil), http.MethodGet, "/api/funding-events?q=alp&page=2&limit=5&from=2025-01-01", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[model.EventPage](t, rec)
	assert.Equal(t, 15, body.Count)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 5, body.Limit)
	assert.Equal(t, "2025-06-15T12:00:00Z", body.LastUpdated)
	assert.Nil(t, body.Error)
	require.Len(t, body.Events, 1)
	assert.Equal(t, "Alpha", body.Events[0].StartupName)
	assert.Equal(t, "alpha", body.Events[0].CompanySlug)

	assert.Equal(t, "alp", store.lastParams.Q)
	require.NotNil(t, store.lastParams.From)
	assert.Equal(t, "2025-01-01", store.lastParams.From.Format("2006-01-02"))
}

func TestFundingEventsErrorsKeepEnvelope(t *testing.T) {
	cases := []struct {
		name   string
		store  storage.EventStore
		target string
		want   string
	}{
		{"no store", nil, "/api/funding-events?limit=500", "store not configured"},
		{"store error", &fakeStore{err: errors.New("timeout")}, "/api/funding-events?limit=500", "timeout"},
		{"bad date", &fakeStore{}, "/api/funding-events?to=yesterday&limit=500", `to: invalid date: "yesterday"`},
	}
	for _, tc := range cases {
		rec := do(t, newTestServer(tc.store, nil), http.MethodGet, tc.target, nil)
		require.Equal(t, http.StatusOK, rec.Code, tc.name)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), tc.name)
		assert.Equal(t, []any{}, raw["events"], tc.name)
		assert.Equal(t, 0.0, raw["count"], tc.name)
		assert.Equal(t, 100.0, raw["limit"], tc.name)
		assert.Equal(t, tc.want, raw["error"], tc.name)
	}
}

func TestCompanyProfile(t *testing.T) {
	first := event("Heliox Energy", "2025-03-01", 20)
	first.FundingRound = model.StringPtr("Series B")
	second := event("Heliox Energy", "2025-01-01", 10)
	second.SourceURL = first.SourceURL
	store := &fakeStore{
		events: []model.FundingEvent{first, second},
		companies: map[string]model.CompanyRecord{
			"heliox-energy": {Slug: "heliox-energy", Bio: model.StringPtr("Fast chargers.")},
		},
	}

	rec := do(t, newTestServer(store, nil), http.MethodGet, "/api/companies/heliox-energy", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cacheShort, rec.Header().Get("Cache-Control"))
	assert.Equal(t, "heliox energy", store.lastName)
	assert.Equal(t, companyEventLimit, store.lastLimit)

	body := decode[model.CompanyProfile](t, rec)
	assert.Equal(t, "Heliox Energy", body.Company.Name)
	assert.Equal(t, model.BioReady, body.Company.BioStatus)
	assert.Equal(t, "Fast chargers.", model.Deref(body.Company.Bio))
	assert.Equal(t, 30.0, body.TotalRaised)
	assert.Equal(t, "Series B", model.Deref(body.LastRound))
	assert.Equal(t, "2025-03-01", model.Deref(body.LastRoundDate))
	assert.Equal(t, []string{"https://news.example.com/Heliox Energy"}, body.Sources)
	require.Len(t, body.Events, 2)
	assert.Equal(t, "heliox-energy", body.Events[0].CompanySlug)
	assert.Nil(t, body.Error)
}

func TestCompanyProfileBioStatus(t *testing.T) {
	pending := &fakeStore{companies: map[string]model.CompanyRecord{"new-co": {Slug: "new-co"}}}
	rec := do(t, newTestServer(pending, nil), http.MethodGet, "/api/companies/new-co", nil)
	body := decode[model.CompanyProfile](t, rec)
	assert.Equal(t, model.BioPending, body.Company.BioStatus)
	assert.Equal(t, cacheNoStore, rec.Header().Get("Cache-Control"))

	rec = do(t, newTestServer(&fakeStore{}, nil), http.MethodGet, "/api/companies/new-co", nil)
	body = decode[model.CompanyProfile](t, rec)
	assert.Equal(t, model.BioAbsent, body.Company.BioStatus)
	assert.Equal(t, "new co", body.Company.Name)
	assert.Equal(t, []model.FundingEvent{}, body.Events)
	assert.Equal(t, cacheShort, rec.Header().Get("Cache-Control"))
}

func TestCompanyProfileStoreError(t *testing.T) {
	rec := do(t, newTestServer(&fakeStore{err: errors.New("boom")}, nil), http.MethodGet, "/api/companies/acme", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cacheNoStore, rec.Header().Get("Cache-Control"))
	body := decode[model.CompanyProfile](t, rec)
	assert.Equal(t, "boom", model.Deref(body.Error))
	assert.Equal(t, 0.0, body.TotalRaised)
	assert.Nil(t, body.LastRound)
}

type recordingLauncher struct {
	slugs []string
	err   error
}

func (l *recordingLauncher) Launch(_ context.Context, slug string) error {
	l.slugs = append(l.slugs, slug)
	return l.err
}

func TestEnrichStubAndRateLimit(t *testing.T) {
	h := newTestServer(&fakeStore{}, enrich.NewService(enrich.NewLimiter(time.Minute), nil, nil))
	headers := map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}

	rec := do(t, h, http.MethodPost, "/api/companies/test-co/enrich", headers)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, cacheNoStore, rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"queued":true,"slug":"test-co","mode":"stub"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/companies/test-co/enrich", headers)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, cacheNoStore, rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"queued":false,"retryAfterSeconds":60}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/companies/test-co/enrich", map[string]string{"X-Forwarded-For": "5.6.7.8"})
	assert.Equal(t, http.StatusAccepted, rec.Code, "other clients are not limited")
}

func TestEnrichLocalRunner(t *testing.T) {
	launcher := &recordingLauncher{}
	h := newTestServer(&fakeStore{}, enrich.NewService(enrich.NewLimiter(time.Minute), launcher, nil))

	rec := do(t, h, http.MethodPost, "/api/companies/spawn-co/enrich", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"queued":true,"slug":"spawn-co","mode":"local-runner"}`, rec.Body.String())
	assert.Equal(t, []string{"spawn-co"}, launcher.slugs)
}

func TestEnrichLaunchFailure(t *testing.T) {
	launcher := &recordingLauncher{err: errors.New("start enrich runner: not found")}
	h := newTestServer(&fakeStore{}, enrich.NewService(enrich.NewLimiter(time.Minute), launcher, nil))

	rec := do(t, h, http.MethodPost, "/api/companies/spawn-co/enrich", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, cacheNoStore, rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"queued":false,"error":"start enrich runner: not found"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeStore{}, nil), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, newTestServer(&fakeStore{pingErr: errors.New("dial tcp: refused")}, nil), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","error":"dial tcp: refused"}`, rec.Body.String())

	rec = do(t, newTestServer(nil, nil), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
