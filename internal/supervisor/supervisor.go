// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package supervisor assembles the suture supervision tree. Long-running
// services implement suture.Service and are restarted with backoff when
// they fail.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/cambist/cambist/internal/logging"
)

// New creates the root supervisor with suture events routed into the
// structured log.
func New() *suture.Supervisor {
	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	return suture.New("cambist", suture.Spec{
		EventHook: handler.MustHook(),
	})
}

// HTTPService runs an http.Server under supervision and shuts it down
// gracefully when the supervisor context is cancelled.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps an http.Server for supervision.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration) *HTTPService {
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	logging.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		logging.Info().Msg("HTTP server stopped")
		return ctx.Err()
	}
}

func (s *HTTPService) String() string {
	return "http-server"
}
