package router

import (
	"braidbook/internal/handlers/auth"
	"braidbook/internal/handlers/availability"
	"braidbook/internal/handlers/booking"
	"braidbook/internal/handlers/gallery"
	"braidbook/internal/handlers/payment"
	"braidbook/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

const (
	rateLimitBucketIntake = "intake"
	rateLimitBucketLogin  = "login"
)

type DomainHandlers struct {
	Auth         auth.Handler
	Availability availability.Handler
	Booking      booking.Handler
	Gallery      gallery.Handler
	Payment      payment.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AppMiddleware  middleware.AppMiddleware
	AuthRole       middleware.AuthRole
}

// SetupRoutes mounts everything under /v1. Customer intake and admin login are rate limited, the rest of /admin sits behind Auth and RBAC.
func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Gallery.Router(routerGroup)
		r.DomainHandlers.Payment.Router(routerGroup)

		routerGroup.Group(func(intake chi.Router) {
			intake.Use(r.AppMiddleware.RateLimit(rateLimitBucketIntake))

			r.DomainHandlers.Booking.IntakeRouter(intake)
		})

		routerGroup.Group(func(login chi.Router) {
			login.Use(r.AppMiddleware.RateLimit(rateLimitBucketLogin))

			r.DomainHandlers.Auth.Router(login)
		})

		routerGroup.Group(func(admin chi.Router) {
			admin.Use(r.AuthRole.Auth, r.AuthRole.RBAC)

			r.DomainHandlers.Booking.AdminRouter(admin)
			r.DomainHandlers.Availability.AdminRouter(admin)
			r.DomainHandlers.Gallery.AdminRouter(admin)
			r.DomainHandlers.Payment.AdminRouter(admin)
		})
	})
}

func New(domainHandlers DomainHandlers, appMiddleware middleware.AppMiddleware, authRole middleware.AuthRole) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AppMiddleware:  appMiddleware,
		AuthRole:       authRole,
	}
}
