package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vytor/speakflash/internal/logger"
)

// handleHealth returns a liveness probe - always returns 200 OK.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady returns 200 when the database answers and the session
// controller is still running, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	log := logger.FromContext(ctx)

	if err := s.DB.PingContext(ctx); err != nil {
		log.Warn("readiness check failed - database: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Database unavailable"))
		return
	}

	select {
	case <-s.Session.Done():
		log.Warn("readiness check failed - session controller stopped")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Session controller stopped"))
		return
	default:
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
