package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/services"
	"github.com/vytor/speakflash/internal/session"
	"github.com/vytor/speakflash/internal/tts"
)

// AudioSource renders utterance text to a local audio file.
type AudioSource interface {
	AudioFile(ctx context.Context, text string) (string, error)
}

type Server struct {
	Session    *session.Controller
	Flashcards services.FlashcardService
	Reviews    services.ReviewService
	Speaker    *tts.Remote
	Audio      AudioSource // nil disables /audio
	DB         *sql.DB
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}
