// Package server exposes form and system setting lookups over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/learn-cache/pkg/api"
	"github.com/Sternrassler/learn-cache/pkg/assets"
	"github.com/Sternrassler/learn-cache/pkg/cacheditem"
	"github.com/Sternrassler/learn-cache/pkg/form"
	"github.com/Sternrassler/learn-cache/pkg/logging"
	"github.com/Sternrassler/learn-cache/pkg/metrics"
	"github.com/Sternrassler/learn-cache/pkg/systemsettings"
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// RequestTimeout bounds each lookup.
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Server serves the lookup API.
type Server struct {
	forms    api.Handler[form.Request, form.Form]
	settings api.Handler[systemsettings.Request, systemsettings.SystemSettings]
	config   Config
	validate *validator.Validate
	logger   zerolog.Logger
}

// New creates a server.
func New(forms api.Handler[form.Request, form.Form], settings api.Handler[systemsettings.Request, systemsettings.SystemSettings], cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		forms:    forms,
		settings: settings,
		config:   cfg,
		validate: validator.New(),
		logger:   logging.NewLogger("http-server"),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
		r.Get("/forms/{type}/{subType}/{action}", s.getForm)
		r.Get("/system-settings/{id}", s.getSystemSettings)
	})

	return r
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server started")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("HTTP server shutdown incomplete")
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	from, err := cacheditem.ParseSource(r.URL.Query().Get("from"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	req := form.Request{
		Type:      chi.URLParam(r, "type"),
		SubType:   chi.URLParam(r, "subType"),
		Action:    chi.URLParam(r, "action"),
		Component: r.URL.Query().Get("component"),
		RootOrgID: r.URL.Query().Get("rootOrgId"),
		Framework: r.URL.Query().Get("framework"),
		From:      from,
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.forms.Handle(r.Context(), req)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"form": result})
}

func (s *Server) getSystemSettings(w http.ResponseWriter, r *http.Request) {
	from, err := cacheditem.ParseSource(r.URL.Query().Get("from"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	req := systemsettings.Request{ID: chi.URLParam(r, "id"), From: from}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.settings.Handle(r.Context(), req)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"response": result})
}

// statusFor maps a lookup failure to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, assets.ErrNotFound), api.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
