/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: server.go
Description: HTTP surface for magicsniff. A chi router exposes buffer and path
inference and matching over the sniff client, plus scheduler statistics. The
server shuts down gracefully when its context ends.
*/

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kleascm/magicsniff/pkg/config"
	"github.com/kleascm/magicsniff/pkg/logging"
	"github.com/kleascm/magicsniff/pkg/sniff"
	"github.com/sirupsen/logrus"
)

// Server wraps a chi router and an http.Server
type Server struct {
	cfg    config.ServerConfig
	root   string // Resolved PathRoot, empty when unconfined
	client *sniff.Client
	logger *logrus.Logger
	mux    *chi.Mux
	srv    *http.Server
}

// NewServer creates a server answering with client
func NewServer(cfg config.ServerConfig, client *sniff.Client, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 32 << 20
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		root:   resolveRoot(cfg.PathRoot),
		client: client,
		logger: logger,
		mux:    chi.NewRouter(),
	}
	s.routes()

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.RealIP)
	s.mux.Use(s.requestLogger)
	s.mux.Use(middleware.Recoverer)
	if len(s.cfg.CORSOrigins) > 0 {
		s.mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/infer", s.handleInferBuffer)
		r.Get("/infer", s.handleInferPath)
		r.Post("/match", s.handleMatchBuffer)
		r.Get("/match", s.handleMatchPath)
		r.Get("/stats", s.handleStats)
	})
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler { return s.mux }

// Addr returns the configured listening address
func (s *Server) Addr() string { return s.cfg.Addr }

// Run listens on the configured address until ctx ends
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve answers requests on ln until ctx ends, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("HTTP server listening")
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
		}).Debug("HTTP request")
	})
}
