// Package web serves the validation engine over HTTP: JSON validation of
// posted records, sheet uploads with a JSON or HTML report, stored run
// lookup and Prometheus metrics.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/sheetnorm/internal/config"
	"github.com/JonMunkholm/sheetnorm/internal/metrics"
	"github.com/JonMunkholm/sheetnorm/internal/store"
	mw "github.com/JonMunkholm/sheetnorm/internal/web/middleware"
)

// Server is the HTTP server for the validation service.
type Server struct {
	cfg     *config.Config
	store   store.Store      // nil when persistence is disabled
	metrics *metrics.Metrics // nil when metrics are disabled
	limiter *UploadLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires routes and middleware. st and m may be nil.
func NewServer(cfg *config.Config, st store.Store, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		metrics: m,
		limiter: NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime, m),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger(s.metrics))
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(s.cfg.Rate))
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Route("/api", func(r chi.Router) {
			r.Get("/profiles", s.handleListProfiles)
			r.Get("/profiles/{domain}/{tier}", s.handleGetProfile)

			r.Post("/validate/{domain}", s.handleValidate)
			r.Post("/validate/{domain}/{tier}", s.handleValidate)

			r.Post("/upload/{domain}", s.handleUpload)
			r.Post("/upload/{domain}/{tier}", s.handleUpload)

			r.Get("/runs/{runID}", s.handleGetRun)
			r.Get("/runs/{runID}/records", s.handleRunRecords)
			r.Get("/runs/{runID}/failures", s.handleRunFailures)
		})

		r.Post("/upload/{domain}/{tier}", s.handleUploadPage)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for in-flight uploads.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.limiter.Drain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		// The HTML report uses an inline stylesheet and nothing else.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON replies with v as JSON and the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
