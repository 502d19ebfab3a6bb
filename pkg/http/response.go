package http

import (
	"encoding/json"
	"net/http"

	apperrors "glec/pkg/errors"
	"glec/pkg/locale"
)

type Envelope struct {
	Success bool                 `json:"success"`
	Data    any                  `json:"data,omitempty"`
	Error   *apperrors.ErrorBody `json:"error,omitempty"`
}

type Page struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError renders err as a failure envelope. Messages are localized from
// the request's language; unknown errors never leak their cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error) error {
	appErr := apperrors.AsAppError(err)

	lang := locale.DefaultLang
	if r != nil {
		lang = locale.FromRequest(r)
	}

	status := appErr.StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return WriteJSON(w, status, Envelope{
		Success: false,
		Error: &apperrors.ErrorBody{
			Code:    appErr.Code,
			Message: locale.Message(lang, appErr.Code, appErr.Message),
			Details: appErr.Details,
		},
	})
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func WritePaginated(w http.ResponseWriter, items any, totalCount int64, limit int, offset int64) error {
	return WriteSuccess(w, Page{
		Items:      items,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	})
}
