package handler

import (
	"net/http"

	"glec/internal/meetings/service"
	apperrors "glec/pkg/errors"
	httputil "glec/pkg/http"
	"glec/pkg/logger"
	"glec/pkg/model"
	"glec/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// Availability is the public booking page's data source.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, r, h.log, "Availability", apperrors.InvalidToken())
		return
	}

	availability, err := h.service.GetAvailability(r.Context(), token)
	if err != nil {
		writeError(w, r, h.log, "Availability", err)
		return
	}

	writeSuccess(w, h.log, "Availability", availability)
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, "Book", err)
		return
	}

	result, err := h.service.Book(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, "Book", err)
		return
	}

	writeCreated(w, h.log, "Book", result)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		writeError(w, r, h.log, "List", err)
		return
	}

	query := r.URL.Query()
	filter := model.BookingFilter{
		Status: model.BookingStatus(sanitizer.NormalizeEnum(query.Get("status"))),
		Search: query.Get("search"),
		Limit:  limit,
		Offset: offset,
	}
	if filter.Status != "" && !validBookingStatus(filter.Status) {
		writeError(w, r, h.log, "List", apperrors.InvalidInput("invalid status parameter: "+string(filter.Status)))
		return
	}

	bookings, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.log, "List", err)
		return
	}

	writePaginated(w, h.log, "List", bookings, total, limit, offset)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, r, h.log, "GetByID", err)
		return
	}

	writeSuccess(w, h.log, "GetByID", booking)
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.StatusUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, "UpdateStatus", err)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		writeError(w, r, h.log, "UpdateStatus", err)
		return
	}

	writeSuccess(w, h.log, "UpdateStatus", booking)
}

func validBookingStatus(s model.BookingStatus) bool {
	switch s {
	case model.BookingPending, model.BookingConfirmed, model.BookingCancelled, model.BookingCompleted:
		return true
	}
	return false
}
