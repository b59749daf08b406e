package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/config"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/metrics"
	"github.com/gosuda/taskhub/internal/server/middleware"
	"github.com/gosuda/taskhub/internal/service"
	"github.com/gosuda/taskhub/internal/tenancy"
)

const (
	apiVersion    = "1.0.0"
	healthTimeout = 2 * time.Second
)

// Services are the components exposed over HTTP.
type Services struct {
	Auth     *auth.Service
	Tenants  *tenancy.Registry
	Projects *service.Projects
	Tasks    *service.Tasks
	Users    *service.Users
	AuditLog *service.AuditLog
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      domain.Store
}

// New creates a Server with all routes wired. ctx bounds the background
// sweepers of the rate limiters. gatherer may be nil to disable /metrics.
func New(ctx context.Context, cfg *config.Config, store domain.Store, svc Services, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RealIP)
	router.Use(hlog.NewHandler(log.Logger))
	router.Use(hlog.RequestIDHandler("request_id", "X-Request-ID"))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	}))
	router.Use(middleware.Recover)
	router.Use(middleware.ClientIP)
	router.Use(m.Middleware)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		store:  store,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
	}

	// Mount the API on /api with two sub-groups:
	// 1. Public registration and login, limited per client IP.
	// 2. Everything else, behind a bearer token and limited per tenant.
	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst))

			publicConfig := huma.DefaultConfig("taskhub Auth API", apiVersion)
			publicConfig.Servers = []*huma.Server{{URL: "/api"}}
			publicConfig.OpenAPIPath = "/auth/openapi"
			publicConfig.DocsPath = "/auth/docs"
			publicConfig.SchemasPath = "/auth/schemas"
			registerPublicRoutes(humachi.New(r, publicConfig), svc)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(svc.Auth))
			r.Use(middleware.RateLimit(ctx, cfg.RateLimit.TenantRPS, cfg.RateLimit.TenantBurst))

			apiConfig := huma.DefaultConfig("taskhub API", apiVersion)
			apiConfig.Servers = []*huma.Server{{URL: "/api"}}
			registerAPIRoutes(humachi.New(r, apiConfig), svc)
		})
	})

	// Health check (unauthenticated).
	router.Get("/healthz", s.healthz)

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(ctx); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("health check: store unreachable")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
