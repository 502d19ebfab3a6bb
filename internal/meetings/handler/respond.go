package handler

import (
	"net/http"

	httputil "glec/pkg/http"
	"glec/pkg/logger"
)

func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, handler string, err error) {
	if writeErr := httputil.WriteError(w, r, err); writeErr != nil {
		log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func writeSuccess(w http.ResponseWriter, log *logger.Logger, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func writeCreated(w http.ResponseWriter, log *logger.Logger, handler string, data any) {
	if err := httputil.WriteCreated(w, data); err != nil {
		log.Error("failed to write created response", "handler", handler, "operation", "WriteCreated", "error", err)
	}
}

func writePaginated(w http.ResponseWriter, log *logger.Logger, handler string, items any, total int64, limit int, offset int64) {
	if err := httputil.WritePaginated(w, items, total, limit, offset); err != nil {
		log.Error("failed to write paginated response", "handler", handler, "operation", "WritePaginated", "error", err)
	}
}
