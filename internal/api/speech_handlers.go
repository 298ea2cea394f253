package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/speakflash/internal/errors"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/session"
)

const (
	speechEventBuffer = 16
	keepAliveInterval = 15 * time.Second
)

func parseGeneration(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "generation")
	gen, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.NewBadRequestError("invalid generation: " + raw)
	}
	return gen, nil
}

// handleSpeechFinished is the playback device reporting that an utterance
// ended. A stale generation is accepted and ignored.
func (s *Server) handleSpeechFinished(w http.ResponseWriter, r *http.Request) {
	gen, err := parseGeneration(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondSnapshot(w, r, func(ctx context.Context) (session.Snapshot, error) {
		return s.Session.SpeechFinished(ctx, gen)
	})
}

// handleSpeechAudio serves the MP3 for the utterance with the given
// generation, or 404 once a newer utterance has replaced it.
func (s *Server) handleSpeechAudio(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if s.Audio == nil {
		handleError(w, r, errors.NewNotFoundError("audio", "synthesis disabled"))
		return
	}

	gen, err := parseGeneration(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	u, ok := s.Speaker.Lookup(gen)
	if !ok {
		log.Debug("audio requested for inactive generation %d", gen)
		handleError(w, r, errors.NewNotFoundError("utterance", gen))
		return
	}

	path, err := s.Audio.AudioFile(r.Context(), u.Text)
	if err != nil {
		handleError(w, r, errors.NewInternalError(err))
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}

// handleSpeechEvents streams speak/cancel commands as server-sent events
// until the client disconnects.
func (s *Server) handleSpeechEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		handleError(w, r, errors.NewInternalError(fmt.Errorf("streaming unsupported")))
		return
	}
	// the server's WriteTimeout would otherwise cut the stream
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("cannot clear write deadline, stream ends at the server write timeout: %v", err)
	}

	commands, unsubscribe := s.Speaker.Subscribe(speechEventBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	log.Info("speech subscriber connected: subscribers=%d", s.Speaker.Subscribers())

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info("speech subscriber disconnected")
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			data, err := json.Marshal(cmd)
			if err != nil {
				log.Error("failed to encode speech command: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", cmd.Kind, data); err != nil {
				log.Debug("speech stream write failed: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}
