package handler

import (
	"net/http"

	"glec/internal/meetings/service"
	httputil "glec/pkg/http"
	"glec/pkg/logger"
	"glec/pkg/middleware"
	"glec/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type LeadHandler struct {
	service service.LeadService
	log     *logger.Logger
}

func NewLeadHandler(service service.LeadService, log *logger.Logger) *LeadHandler {
	return &LeadHandler{
		service: service,
		log:     log,
	}
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var lead model.Lead
	if err := httputil.DecodeJSON(r, &lead); err != nil {
		writeError(w, r, h.log, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &lead); err != nil {
		writeError(w, r, h.log, "Create", err)
		return
	}

	writeCreated(w, h.log, "Create", lead)
}

func (h *LeadHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lead, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, r, h.log, "GetByID", err)
		return
	}

	writeSuccess(w, h.log, "GetByID", lead)
}

func (h *LeadHandler) Activities(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		writeError(w, r, h.log, "Activities", err)
		return
	}

	activities, total, err := h.service.Activities(r.Context(), ps.ByName("id"), limit, offset)
	if err != nil {
		writeError(w, r, h.log, "Activities", err)
		return
	}

	writePaginated(w, h.log, "Activities", activities, total, limit, offset)
}

// ProposeMeeting issues a booking link. The issuing admin is recorded on
// the token.
func (h *LeadHandler) ProposeMeeting(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ProposalRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			writeError(w, r, h.log, "ProposeMeeting", err)
			return
		}
	}

	createdBy := ""
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		createdBy = claims.Subject
		if req.AdminEmail == "" {
			req.AdminEmail = claims.Email
		}
	}

	result, err := h.service.ProposeMeeting(r.Context(), ps.ByName("id"), &req, createdBy)
	if err != nil {
		writeError(w, r, h.log, "ProposeMeeting", err)
		return
	}

	writeCreated(w, h.log, "ProposeMeeting", result)
}
