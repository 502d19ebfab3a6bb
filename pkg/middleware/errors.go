package middleware

import (
	"net/http"

	apperrors "glec/pkg/errors"
	httputil "glec/pkg/http"
	"glec/pkg/logger"
)

func reject(w http.ResponseWriter, r *http.Request, log *logger.Logger, err *apperrors.AppError) {
	if writeErr := httputil.WriteError(w, r, err); writeErr != nil {
		log.ErrorContext(r.Context(), "failed to write error response",
			"code", err.Code,
			"error", writeErr,
		)
	}
}
