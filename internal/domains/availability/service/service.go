package service

import (
	"braidbook/config"
	"braidbook/infras/otel"
	"braidbook/internal/domains/availability/model"
	"braidbook/internal/domains/availability/model/dto"
	"braidbook/internal/domains/availability/repository"
	"braidbook/shared"
	"braidbook/shared/cache"
	"braidbook/shared/constant"
	gDto "braidbook/shared/dto"
	"braidbook/shared/validator"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const cacheGetAvailability = "availability:get"

type Availability interface {
	Publish(ctx context.Context, req dto.PublishAvailabilityRequest) (dto.PublishAvailabilityResponse, error)
	GetByDate(ctx context.Context, date string) (dto.GetAvailabilityResponse, error)
}

type serviceImpl struct {
	repo  repository.Availability
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Availability, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Availability {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

// Publish opens the given clocks on a date for booking. Slots already published are kept as they are.
func (s *serviceImpl) Publish(ctx context.Context, req dto.PublishAvailabilityRequest) (res dto.PublishAvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.Publish")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	published, err := s.repo.Publish(ctx, req.ToModels(s.cfg.Booking.DailySlots, user))
	if err != nil {
		log.Error().Err(err).Str("date", req.Date).Msg("failed to publish availability")

		return res, fmt.Errorf("failed to publish availability: %w", err)
	}

	log.Info().Str("date", req.Date).Int("published", published).Msg("availability published")

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAvailability)
		shared.InvalidateCaches(c, s.cache, constant.CacheKeyBookingAvailability)
	}()

	res.Date = req.Date
	res.Published = published

	return res, nil
}

func (s *serviceImpl) GetByDate(ctx context.Context, date string) (res dto.GetAvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.GetByDate")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validator.ValidateVar(date, "required,dateonly"); err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetAvailability, date)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for published availability")

		return res, nil
	}

	params := gDto.QueryParams{
		SortBy:  model.TableName + "." + model.FieldSlotTime,
		SortDir: gDto.SortDirAsc,
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldSlotDate,
				Operator: gDto.FilterOperatorEq,
				Value:    date,
				Table:    model.TableName,
			},
		},
	}

	slots, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get published availability")

		return res, fmt.Errorf("failed to get published availability: %w", err)
	}

	res.FromModels(slots)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save published availability to cache")
		}
	}()

	return res, nil
}
