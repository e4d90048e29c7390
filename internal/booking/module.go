// Package booking provides the booking wizard bounded context module.
// This file defines the module that encapsulates all wizard setup and route
// registration.
package booking

import (
	"clearaway_backend/internal/address"
	"clearaway_backend/internal/booking/handler"
	"clearaway_backend/internal/booking/repository"
	"clearaway_backend/internal/booking/rules"
	"clearaway_backend/internal/booking/service"
	apphttp "clearaway_backend/internal/http"
	"clearaway_backend/platform/config"
	"clearaway_backend/platform/logger"
	"clearaway_backend/platform/validator"
)

// Module is the booking bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the booking module with all its
// dependencies. queue may be nil when the delivery queue is disabled.
func NewModule(
	repo repository.Repository,
	provider address.Provider,
	gateway service.Gateway,
	payments service.Payments,
	queue service.FallbackQueue,
	val *validator.Validator,
	cfg config.LookupConfig,
	log *logger.Logger,
) (*Module, error) {
	if err := rules.Register(val); err != nil {
		return nil, err
	}

	resolver := address.NewResolver(provider, log)
	svc := service.New(repo, resolver, gateway, payments, queue, cfg.GetLookupDebounce(), log)
	h := handler.New(svc, val, log)

	return &Module{handler: h, service: svc}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "booking"
}

// Service returns the wizard service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the wizard routes on the provided router context.
// Every endpoint is public; the shared per-IP limiter already guards the
// /api/v1 group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/slots", m.handler.Slots)

	bookings := ctx.V1.Group("/bookings")
	bookings.POST("", m.handler.Start)
	bookings.GET("/:id", m.handler.Get)
	bookings.POST("/:id/contact", m.handler.Contact)
	bookings.POST("/:id/collection", m.handler.Collection)
	bookings.POST("/:id/preferences", m.handler.Preferences)
	bookings.POST("/:id/back", m.handler.Back)
	bookings.POST("/:id/reset", m.handler.Reset)
	bookings.POST("/:id/postcode", m.handler.Postcode)
	bookings.POST("/:id/postcode/confirm", m.handler.PostcodeConfirm)
	bookings.POST("/:id/payment-intent", m.handler.PaymentIntent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
