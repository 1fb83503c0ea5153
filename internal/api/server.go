package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/project-explorer/internal/config"
	"github.com/terra-clan/project-explorer/internal/health"
	"github.com/terra-clan/project-explorer/internal/metrics"
	"github.com/terra-clan/project-explorer/internal/models"
)

// maxBodyBytes bounds the size of a search request body
const maxBodyBytes = 1 << 20

// Searcher runs catalog searches
type Searcher interface {
	Search(ctx context.Context, req models.FilterRequest) (models.ResultPage, error)
}

// FacetLister lists filter values and table columns
type FacetLister interface {
	Values(ctx context.Context, name string) ([]string, error)
	Columns(ctx context.Context, table string) ([]string, error)
}

// Dependencies are the services the API serves. Health, Metrics and
// MetricsHandler are optional.
type Dependencies struct {
	Search         Searcher
	Facets         FacetLister
	Health         *health.Registry
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
}

// Server represents the HTTP API server
type Server struct {
	config  config.ServerConfig
	router  *chi.Mux
	search  Searcher
	facets  FacetLister
	health  *health.Registry
	metrics *metrics.Metrics
	promh   http.Handler
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	s := &Server{
		config:  cfg,
		search:  deps.Search,
		facets:  deps.Facets,
		health:  deps.Health,
		metrics: deps.Metrics,
		promh:   deps.MetricsHandler,
	}
	if s.health == nil {
		s.health = health.NewRegistry()
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestLimit
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	if s.promh != nil {
		r.Method(http.MethodGet, "/metrics", s.promh)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)

		r.Route("/categorias", func(r chi.Router) {
			r.Get("/{cat}", s.handleListFacet)
			r.Get("/{cat}/columns", s.handleListColumns)
		})
	})

	s.router = r
}
