package handler

import (
	"net/http"

	"glec/pkg/auth"
	"glec/pkg/logger"
	"glec/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// Router mounts the public booking endpoints and the admin API.
type Router struct {
	bookings    *BookingHandler
	slots       *SlotHandler
	leads       *LeadHandler
	auth        middleware.TokenParser
	idempotency middleware.IdempotencyStore
	log         *logger.Logger
}

func NewRouter(
	bookings *BookingHandler,
	slots *SlotHandler,
	leads *LeadHandler,
	parser middleware.TokenParser,
	idempotency middleware.IdempotencyStore,
	log *logger.Logger,
) *Router {
	return &Router{
		bookings:    bookings,
		slots:       slots,
		leads:       leads,
		auth:        parser,
		idempotency: idempotency,
		log:         log,
	}
}

func (rt *Router) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/meetings/availability", rt.bookings.Availability)
	router.POST("/api/meetings/book", rt.idempotent(rt.bookings.Book))

	router.GET("/api/admin/meetings/slots", rt.role(auth.RoleContentManager, rt.slots.List))
	router.POST("/api/admin/meetings/slots", rt.role(auth.RoleContentManager, rt.slots.Create))
	router.POST("/api/admin/meetings/slots/generate", rt.role(auth.RoleContentManager, rt.slots.Generate))
	router.GET("/api/admin/meetings/slots/:id", rt.role(auth.RoleContentManager, rt.slots.GetByID))
	router.PATCH("/api/admin/meetings/slots/:id", rt.role(auth.RoleContentManager, rt.slots.Update))
	router.DELETE("/api/admin/meetings/slots/:id", rt.role(auth.RoleContentManager, rt.slots.Delete))

	router.GET("/api/admin/meetings/bookings", rt.role(auth.RoleAnalyst, rt.bookings.List))
	router.GET("/api/admin/meetings/bookings/:id", rt.role(auth.RoleAnalyst, rt.bookings.GetByID))
	router.PATCH("/api/admin/meetings/bookings/:id/status", rt.role(auth.RoleContentManager, rt.bookings.UpdateStatus))

	router.POST("/api/admin/leads", rt.role(auth.RoleContentManager, rt.leads.Create))
	router.GET("/api/admin/leads/:id", rt.role(auth.RoleAnalyst, rt.leads.GetByID))
	router.GET("/api/admin/leads/:id/activities", rt.role(auth.RoleAnalyst, rt.leads.Activities))
	router.POST("/api/admin/leads/:id/meeting-proposal", rt.role(auth.RoleContentManager, rt.leads.ProposeMeeting))
}

func (rt *Router) role(required auth.Role, next httprouter.Handle) httprouter.Handle {
	return middleware.RequireRole(rt.auth, required, rt.log, next)
}

// idempotent runs next behind the Idempotency-Key replay cache.
func (rt *Router) idempotent(next httprouter.Handle) httprouter.Handle {
	if rt.idempotency == nil {
		return next
	}
	mw := middleware.Idempotency(rt.idempotency, middleware.DefaultIdempotencyHeader)
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next(w, r, ps)
		})).ServeHTTP(w, r)
	}
}
