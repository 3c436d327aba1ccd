package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/floodsight/floodsight-engine/internal/config"
)

// Server wraps the HTTP listener and its lifecycle.
type Server struct {
	logger *slog.Logger
	http   *http.Server
}

// NewServer builds the HTTP server around the handler routes.
func NewServer(logger *slog.Logger, cfg config.ServerConfig, handler *Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		http: &http.Server{
			Addr:         cfg.Address,
			Handler:      handler.Routes(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("address", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
