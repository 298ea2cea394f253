package api

import (
	stderrors "errors"
	"net/http"

	"github.com/vytor/speakflash/internal/errors"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/session"
)

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var appErr *errors.AppError
	if stderrors.Is(err, session.ErrStopped) {
		appErr = errors.NewUnavailableError("session controller", err)
	} else {
		appErr = errors.As(err)
	}

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	writeJSON(w, r, appErr.Status, map[string]any{
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
