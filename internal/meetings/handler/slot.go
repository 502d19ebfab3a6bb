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

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var slot model.MeetingSlot
	if err := httputil.DecodeJSON(r, &slot); err != nil {
		writeError(w, r, h.log, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &slot); err != nil {
		writeError(w, r, h.log, "Create", err)
		return
	}

	writeCreated(w, h.log, "Create", slot)
}

func (h *SlotHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slot, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, r, h.log, "GetByID", err)
		return
	}

	writeSuccess(w, h.log, "GetByID", slot)
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := slotFilter(r)
	if err != nil {
		writeError(w, r, h.log, "List", err)
		return
	}

	slots, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.log, "List", err)
		return
	}

	writePaginated(w, h.log, "List", slots, total, filter.Limit, filter.Offset)
}

func slotFilter(r *http.Request) (model.SlotFilter, error) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		return model.SlotFilter{}, err
	}
	from, err := httputil.ExtractTime(r, "from")
	if err != nil {
		return model.SlotFilter{}, err
	}
	to, err := httputil.ExtractTime(r, "to")
	if err != nil {
		return model.SlotFilter{}, err
	}

	query := r.URL.Query()
	filter := model.SlotFilter{
		MeetingType: model.MeetingType(sanitizer.NormalizeEnum(query.Get("meeting_type"))),
		Status:      model.SlotStatus(sanitizer.NormalizeEnum(query.Get("status"))),
		From:        from,
		To:          to,
		Limit:       limit,
		Offset:      offset,
	}

	switch filter.MeetingType {
	case "", model.MeetingTypeDemo, model.MeetingTypeConsultation, model.MeetingTypeOnboarding,
		model.MeetingTypeFollowup, model.MeetingTypeOther:
	default:
		return model.SlotFilter{}, apperrors.InvalidInput("invalid meeting_type parameter: " + string(filter.MeetingType))
	}
	switch filter.Status {
	case "", model.SlotAvailable, model.SlotBooked, model.SlotBlocked:
	default:
		return model.SlotFilter{}, apperrors.InvalidInput("invalid status parameter: " + string(filter.Status))
	}

	return filter, nil
}

func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.MeetingSlotUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		writeError(w, r, h.log, "Update", err)
		return
	}

	slot, err := h.service.Update(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		writeError(w, r, h.log, "Update", err)
		return
	}

	writeSuccess(w, h.log, "Update", slot)
}

func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		writeError(w, r, h.log, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

// Generate accepts an empty body and falls back to the configured horizon.
func (h *SlotHandler) Generate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.GenerateSlotsRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			writeError(w, r, h.log, "Generate", err)
			return
		}
	}

	result, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, "Generate", err)
		return
	}

	writeSuccess(w, h.log, "Generate", result)
}
