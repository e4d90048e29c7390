// Package handler exposes the booking wizard over HTTP.
package handler

import (
	"net/http"

	"clearaway_backend/internal/booking/domain"
	"clearaway_backend/internal/booking/service"
	"clearaway_backend/internal/booking/transport"
	"clearaway_backend/internal/pricing"
	"clearaway_backend/platform/httpkit"
	"clearaway_backend/platform/logger"
	"clearaway_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler serves the wizard endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

// New creates the booking handler.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// Slots lists the selectable collection windows with their pricing so the
// form never hard-codes amounts.
func (h *Handler) Slots(c *gin.Context) {
	rules := pricing.Rules()
	options := make([]transport.SlotOption, 0, len(rules))
	for _, r := range rules {
		options = append(options, transport.SlotOption{
			Key:            r.Key,
			Label:          r.Label,
			SurchargePence: r.SurchargePence,
			MinChargePence: r.MinChargePence,
			AmountDuePence: pricing.AmountDuePence(r.Key),
		})
	}
	httpkit.OK(c, options)
}

// Start opens a new wizard session.
func (h *Handler) Start(c *gin.Context) {
	session, err := h.svc.Start(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, h.sessionResponse(session))
}

// Get returns the session snapshot.
func (h *Handler) Get(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.sessionResponse(session))
}

// Contact completes step 1.
func (h *Handler) Contact(c *gin.Context) {
	var req transport.ContactRequest
	if !h.bind(c, &req) {
		return
	}
	session, err := h.svc.SubmitContact(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.sessionResponse(session))
}

// Collection completes step 2.
func (h *Handler) Collection(c *gin.Context) {
	var req transport.CollectionRequest
	if !h.bind(c, &req) {
		return
	}
	session, err := h.svc.SubmitCollection(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.sessionResponse(session))
}

// Preferences completes step 3 and submits the booking.
func (h *Handler) Preferences(c *gin.Context) {
	var req transport.PreferencesRequest
	if !h.bind(c, &req) {
		return
	}
	session, err := h.svc.SubmitPreferences(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.sessionResponse(session))
}

// Back moves one step backward.
func (h *Handler) Back(c *gin.Context) {
	session, err := h.svc.Back(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.sessionResponse(session))
}

// Reset discards the session's data for a fresh booking.
func (h *Handler) Reset(c *gin.Context) {
	session, err := h.svc.Reset(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.sessionResponse(session))
}

// Postcode records a postcode edit and schedules the debounced lookup.
func (h *Handler) Postcode(c *gin.Context) {
	var req transport.PostcodeRequest
	if !h.bind(c, &req) {
		return
	}
	session, err := h.svc.NotePostcodeChange(c.Request.Context(), c.Param("id"), req.Postcode)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.sessionResponse(session))
}

// PostcodeConfirm is the blur-time lookup: it waits for a definitive
// outcome for the current postcode before responding.
func (h *Handler) PostcodeConfirm(c *gin.Context) {
	session, err := h.svc.EnsureLookup(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.sessionResponse(session))
}

// PaymentIntent creates a payment intent for the session's amount due.
func (h *Handler) PaymentIntent(c *gin.Context) {
	resp, err := h.svc.CreateIntent(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) sessionResponse(session *domain.Session) transport.SessionResponse {
	return transport.NewSessionResponse(session, h.svc.AmountDuePence(session))
}
