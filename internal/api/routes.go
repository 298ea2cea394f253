package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.handleSession)
		r.Post("/start", s.handleStart)
		r.Post("/restart", s.handleRestart)
		r.Post("/pause", s.handlePause)
		r.Post("/resume", s.handleResume)
		r.Post("/tap", s.handleTap)
		r.Put("/order", s.handleSetOrder)
		r.Post("/reload", s.handleReload)

		r.Get("/speech/events", s.handleSpeechEvents)
		r.Post("/speech/{generation}/finished", s.handleSpeechFinished)
		r.Get("/speech/{generation}/audio", s.handleSpeechAudio)
	})

	r.Get("/flashcards", s.handleListFlashcards)
	r.Post("/flashcards", s.handleCreateFlashcard)
	r.Get("/reviews", s.handleListReviews)
	return r
}
