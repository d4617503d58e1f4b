//go:build wireinject
// +build wireinject

package di

import (
	"braidbook/config"
	"braidbook/infras/jwt"
	"braidbook/infras/kafka"
	"braidbook/infras/otel"
	"braidbook/infras/postgres"
	"braidbook/infras/redis"
	"braidbook/infras/s3"
	"braidbook/infras/stripe"
	"braidbook/permissions"
	"braidbook/shared/cache"
	"braidbook/transport/http"
	"braidbook/transport/http/middleware"
	"braidbook/transport/http/router"
	"braidbook/transport/schedule"

	"github.com/google/wire"

	authService "braidbook/internal/domains/auth/service"
	availabilityRepository "braidbook/internal/domains/availability/repository"
	availabilityService "braidbook/internal/domains/availability/service"
	bookingEvent "braidbook/internal/domains/booking/event"
	bookingRepository "braidbook/internal/domains/booking/repository"
	bookingService "braidbook/internal/domains/booking/service"
	galleryRepository "braidbook/internal/domains/gallery/repository"
	galleryService "braidbook/internal/domains/gallery/service"
	paymentRepository "braidbook/internal/domains/payment/repository"
	paymentService "braidbook/internal/domains/payment/service"
	authHandler "braidbook/internal/handlers/auth"
	availabilityHandler "braidbook/internal/handlers/availability"
	bookingHandler "braidbook/internal/handlers/booking"
	galleryHandler "braidbook/internal/handlers/gallery"
	paymentHandler "braidbook/internal/handlers/payment"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	stripe.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	bookingEvent.NewPublisher,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var availabilityDomain = wire.NewSet(
	availabilityRepository.New,
	availabilityService.New,
)

var paymentDomain = wire.NewSet(
	paymentRepository.New,
	paymentService.New,
)

var galleryDomain = wire.NewSet(
	galleryRepository.New,
	galleryService.New,
)

var domains = wire.NewSet(
	bookingDomain,
	availabilityDomain,
	paymentDomain,
	galleryDomain,
	authService.New,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	availabilityHandler.New,
	bookingHandler.New,
	galleryHandler.New,
	paymentHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeSweeper() *schedule.Sweeper {
	wire.Build(
		config.Get,
		postgres.New,
		otel.New,
		redis.New,
		kafka.New,
		stripe.New,
		cache.NewRedisCache,
		bookingEvent.NewPublisher,
		bookingRepository.New,
		paymentDomain,
		schedule.New,
	)

	return &schedule.Sweeper{}
}
