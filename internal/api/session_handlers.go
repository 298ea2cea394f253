package api

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"

	"github.com/vytor/speakflash/internal/deck"
	"github.com/vytor/speakflash/internal/errors"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/session"
)

type sessionOp func(ctx context.Context) (session.Snapshot, error)

// respondSnapshot runs op and writes the resulting snapshot. Ignored inputs
// still answer 200 with the unchanged snapshot.
func respondSnapshot(w http.ResponseWriter, r *http.Request, op sessionOp) {
	snap, err := op(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	respondSnapshot(w, r, s.Session.Snapshot)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	respondSnapshot(w, r, s.Session.Start)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	respondSnapshot(w, r, s.Session.Restart)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	respondSnapshot(w, r, s.Session.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	respondSnapshot(w, r, s.Session.Resume)
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	respondSnapshot(w, r, s.Session.HandleTap)
}

// handleReload re-reads the flashcard store. A failed read still installs an
// empty deck, so the error response is the only signal besides deck_error.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Session.Reload(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondSnapshot(w, r, s.Session.Snapshot)
}

type orderRequest struct {
	Policy string `json:"policy"`
}

func (s *Server) handleSetOrder(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var raw string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("invalid order request body: %v", err)
			handleError(w, r, errors.NewBadRequestError("invalid JSON body"))
			return
		}
		raw = req.Policy
	} else {
		raw = r.FormValue("policy")
	}

	policy, err := deck.ParsePolicy(raw)
	if err != nil {
		log.Warn("rejected order policy %q", raw)
		handleError(w, r, errors.NewValidationError("policy", "must be oldest, newest or random"))
		return
	}

	respondSnapshot(w, r, func(ctx context.Context) (session.Snapshot, error) {
		return s.Session.SetOrderPolicy(ctx, policy)
	})
}
