package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fundingScope/internal/enrich"
	"fundingScope/internal/storage"
)

// DefaultFetchLimit caps how many recent events feed the dashboard.
const DefaultFetchLimit = 2000

// Options wires a Server. Store may be nil, in which case every data route
// reports storage.ErrNotConfigured in its envelope.
type Options struct {
	Store      storage.EventStore
	Enrich     *enrich.Service
	Logger     *zap.Logger
	FetchLimit int
	Now        func() time.Time
}

// Server serves the JSON API.
type Server struct {
	store      storage.EventStore
	enrich     *enrich.Service
	logger     *zap.Logger
	fetchLimit int
	now        func() time.Time
}

func NewServer(opts Options) *Server {
	s := &Server{
		store:      opts.Store,
		enrich:     opts.Enrich,
		logger:     opts.Logger,
		fetchLimit: opts.FetchLimit,
		now:        opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.fetchLimit <= 0 {
		s.fetchLimit = DefaultFetchLimit
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.enrich == nil {
		s.enrich = enrich.NewService(enrich.NewLimiter(time.Minute), nil, s.logger)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", s.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.Dashboard)
		r.Get("/funding-events", s.FundingEvents)
		r.Get("/companies/{slug}", s.Company)
		r.Post("/companies/{slug}/enrich", s.Enrich)
	})

	return r
}
