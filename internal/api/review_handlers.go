package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/vytor/speakflash/internal/errors"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/models"
)

// parseReviewFilter reads flashcard_id, session_id, correct, since (RFC 3339),
// limit and offset from the query string.
func parseReviewFilter(r *http.Request) (models.ReviewFilter, error) {
	q := r.URL.Query()
	var f models.ReviewFilter

	if v := q.Get("flashcard_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, errors.NewBadRequestError("invalid flashcard_id")
		}
		f.FlashcardID = id
	}
	f.SessionID = q.Get("session_id")
	if v := q.Get("correct"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.NewBadRequestError("invalid correct")
		}
		f.Correct = &b
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.NewBadRequestError("invalid since, want RFC 3339")
		}
		f.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.NewBadRequestError("invalid limit")
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.NewBadRequestError("invalid offset")
		}
		f.Offset = n
	}
	return f, nil
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReviewFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	events, err := s.Reviews.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"reviews": events})
}

func (s *Server) handleListFlashcards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.Flashcards.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"flashcards": cards})
}

type createFlashcardRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// handleCreateFlashcard adds a card. The running session picks it up on the
// next reload.
func (s *Server) handleCreateFlashcard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req createFlashcardRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("invalid flashcard body: %v", err)
			handleError(w, r, errors.NewBadRequestError("invalid JSON body"))
			return
		}
	} else {
		req.Question = r.FormValue("question")
		req.Answer = r.FormValue("answer")
	}

	card, err := s.Flashcards.Create(r.Context(), req.Question, req.Answer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}
