package service

import (
	"braidbook/config"
	"braidbook/infras/otel"
	"braidbook/infras/stripe"
	availabilityModel "braidbook/internal/domains/availability/model"
	availabilityRepo "braidbook/internal/domains/availability/repository"
	"braidbook/internal/domains/booking/event"
	"braidbook/internal/domains/booking/model"
	"braidbook/internal/domains/booking/model/dto"
	"braidbook/internal/domains/booking/repository"
	"braidbook/shared"
	"braidbook/shared/cache"
	"braidbook/shared/constant"
	gDto "braidbook/shared/dto"
	"braidbook/shared/failure"
	"braidbook/shared/timezone"
	"braidbook/shared/validator"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	sourceIntake = "intake"
	sourceAdmin  = "admin"

	defaultDurationHours = 4

	msgSlotTaken          = "This time slot is already taken. Please choose another time."
	msgDirectReceived     = "Booking request received! We will confirm your appointment shortly."
	msgCheckoutNotStarted = "could not start the deposit checkout, please try again"
)

var sortableColumns = map[string]string{
	model.FieldSlotID:        model.TableName + "." + model.FieldSlotID,
	model.FieldStatus:        model.TableName + "." + model.FieldStatus,
	model.FieldCustomerName:  model.TableName + "." + model.FieldCustomerName,
	constant.FieldCreatedAt:  model.TableName + "." + constant.FieldCreatedAt,
	constant.FieldModifiedAt: model.TableName + "." + constant.FieldModifiedAt,
}

type Booking interface {
	InitiateBooking(ctx context.Context, req dto.InitiateBookingRequest) (dto.InitiateBookingResponse, error)
	CheckAndCreateBooking(ctx context.Context, req dto.CreateBookingRequest) (dto.CreateBookingResponse, error)
	SlotStatus(ctx context.Context, slotID string) (dto.SlotStatusResponse, error)
	AvailabilityByDate(ctx context.Context, date string) (dto.AvailabilityResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	UpdateStatus(ctx context.Context, req dto.UpdateBookingStatusRequest, id string) error
}

type serviceImpl struct {
	repo             repository.Booking
	availabilityRepo availabilityRepo.Availability
	stripe           stripe.Stripe
	publisher        event.Publisher
	cfg              *config.Config
	cache            cache.RedisCache
	otel             otel.Otel
}

func New(
	repo repository.Booking,
	availabilityRepo availabilityRepo.Availability,
	stripe stripe.Stripe,
	publisher event.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:             repo,
		availabilityRepo: availabilityRepo,
		stripe:           stripe,
		publisher:        publisher,
		cfg:              cfg,
		cache:            cache,
		otel:             otel,
	}
}

// InitiateBooking claims the slot as pending_deposit and opens a deposit checkout for it.
// A failed checkout leaves the claim in place; the sweeper releases it after the expiry window.
func (s *serviceImpl) InitiateBooking(ctx context.Context, req dto.InitiateBookingRequest) (res dto.InitiateBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".InitiateBooking")
	defer scope.End()
	defer scope.TraceIfError(&err)

	req.Normalize()

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err
	}

	booking := req.ToModel(constant.ContextGuest)

	if err = s.repo.Claim(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			log.Info().Str("slotId", booking.SlotID).Msg("slot claim rejected, already taken")

			return res, failure.Conflict(msgSlotTaken) //nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to claim slot")

		return res, fmt.Errorf("failed to claim slot: %w", err)
	}

	scope.AddEvent("slot claimed " + booking.SlotID)

	go func() {
		c := context.WithoutCancel(ctx)

		event.Notify(c, s.cache, s.publisher, event.New(event.TypeClaimed, booking, sourceIntake))
	}()

	session, err := s.stripe.CreateCheckoutSession(ctx, s.checkoutParams(booking))
	if err != nil {
		log.Error().Err(err).Str("bookingId", booking.ID).Msg("failed to create checkout session, claim left for the sweeper")

		return res, failure.Upstream(msgCheckoutNotStarted, err) //nolint:wrapcheck
	}

	if err = s.repo.AttachPaymentSession(ctx, booking.ID, session.ID); err != nil {
		log.Error().Err(err).Str("bookingId", booking.ID).Str("sessionId", session.ID).Msg("failed to attach checkout session")

		return res, fmt.Errorf("failed to attach checkout session: %w", err)
	}

	res.CheckoutURL = session.URL

	return res, nil
}

func (s *serviceImpl) checkoutParams(booking model.Booking) stripe.CheckoutParams {
	frontend := strings.TrimRight(s.cfg.App.FrontendURL, "/")
	expiry := time.Duration(s.cfg.Booking.DepositExpiryMinutes) * time.Minute

	return stripe.CheckoutParams{
		BookingID:      booking.ID,
		SlotID:         booking.SlotID,
		ProductName:    s.cfg.Booking.DepositProductName,
		Description:    "Slot ID: " + booking.SlotID,
		AmountCents:    s.cfg.Booking.DepositAmount,
		Currency:       s.cfg.Booking.Currency,
		SuccessURL:     frontend + "/?success=true&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      frontend + "/?canceled=true",
		ExpiresAt:      timezone.Now().Add(expiry),
		IdempotencyKey: "appt_" + booking.ID,
	}
}

// CheckAndCreateBooking books a daily slot without a deposit. The existence check is a fast
// path for the common case; the claim's unique index settles concurrent requests.
func (s *serviceImpl) CheckAndCreateBooking(ctx context.Context, req dto.CreateBookingRequest) (res dto.CreateBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAndCreateBooking")
	defer scope.End()
	defer scope.TraceIfError(&err)

	req.Normalize()

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err
	}

	slotID, err := s.slotFromStartTime(req.StartTime)
	if err != nil {
		return res, err
	}

	taken, err := s.repo.LiveExists(ctx, slotID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check slot")

		return res, fmt.Errorf("failed to check slot: %w", err)
	}

	if taken {
		return res, failure.Conflict(msgSlotTaken) //nolint:wrapcheck
	}

	booking := req.ToModel(slotID, constant.ContextGuest)

	if err = s.repo.Claim(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return res, failure.Conflict(msgSlotTaken) //nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	evt := event.New(event.TypeClaimed, booking, sourceIntake)
	evt.DurationHours = req.DurationHours

	if evt.DurationHours == 0 {
		evt.DurationHours = defaultDurationHours
	}

	go func() {
		c := context.WithoutCancel(ctx)

		event.Notify(c, s.cache, s.publisher, evt)
	}()

	res.Status = dto.ResponseStatusSuccess
	res.Message = msgDirectReceived

	return res, nil
}

func (s *serviceImpl) slotFromStartTime(startTime string) (string, error) {
	start, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		return "", failure.BadRequestFromString("startTime must be an RFC3339 timestamp") //nolint:wrapcheck
	}

	slotID := model.SlotKey(start, timezone.GetLocation())
	_, clock, _ := model.SplitSlotKey(slotID)

	if !slices.Contains(s.cfg.Booking.DailySlots, clock) {
		msg := fmt.Sprintf("startTime must fall on a daily slot (%s)", strings.Join(s.cfg.Booking.DailySlots, ", "))

		return "", failure.BadRequestFromString(msg) //nolint:wrapcheck
	}

	return slotID, nil
}

// SlotStatus is read straight from the store so callers never see a stale answer.
func (s *serviceImpl) SlotStatus(ctx context.Context, slotID string) (res dto.SlotStatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SlotStatus")
	defer scope.End()
	defer scope.TraceIfError(&err)

	slotID = strings.TrimSpace(slotID)
	if err = validator.ValidateVar(slotID, "required,max=64"); err != nil {
		return res, err
	}

	live, err := s.repo.LiveExists(ctx, slotID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot status")

		return res, fmt.Errorf("failed to get slot status: %w", err)
	}

	res.FromLive(slotID, live)

	return res, nil
}

func (s *serviceImpl) AvailabilityByDate(ctx context.Context, date string) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".AvailabilityByDate")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validator.ValidateVar(date, "required,dateonly"); err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(constant.CacheKeyBookingAvailability, date)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for availability")

		return res, nil
	}

	clocks, err := s.clocksForDate(ctx, date)
	if err != nil {
		return res, err
	}

	slotIDs := make([]string, len(clocks))
	for i, clock := range clocks {
		slotIDs[i] = model.SlotKeyFor(date, clock)
	}

	liveSlots, err := s.repo.LiveSlots(ctx, slotIDs)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booked slots")

		return res, fmt.Errorf("failed to get booked slots: %w", err)
	}

	taken := make(map[string]bool, len(liveSlots))
	for _, slotID := range liveSlots {
		taken[slotID] = true
	}

	res.FromTaken(date, clocks, taken)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save availability to cache")
		}
	}()

	return res, nil
}

// clocksForDate prefers the slots published for date and falls back to the configured daily set.
func (s *serviceImpl) clocksForDate(ctx context.Context, date string) ([]string, error) {
	params := gDto.QueryParams{
		SortBy:  availabilityModel.TableName + "." + availabilityModel.FieldSlotTime,
		SortDir: gDto.SortDirAsc,
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    availabilityModel.FieldSlotDate,
				Operator: gDto.FilterOperatorEq,
				Value:    date,
				Table:    availabilityModel.TableName,
			},
		},
	}

	published, err := s.availabilityRepo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get published availability")

		return nil, fmt.Errorf("failed to get published availability: %w", err)
	}

	if len(published) == 0 {
		return s.cfg.Booking.DailySlots, nil
	}

	clocks := make([]string, len(published))
	for i, slot := range published {
		clocks[i] = slot.SlotTime
	}

	return clocks, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if req, err = sanitizeSort(req); err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKeyWithQuery(constant.CacheKeyBookingList, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

// sanitizeSort maps the requested sort onto a known column. ORDER BY is not parameterised,
// so anything outside the allow list is rejected.
func sanitizeSort(req gDto.QueryParams) (gDto.QueryParams, error) {
	if req.SortBy == "" {
		req.SortBy = model.FieldSlotID
		req.SortDir = gDto.SortDirAsc
	}

	column, ok := sortableColumns[req.SortBy]
	if !ok {
		return req, failure.BadRequestFromString("unsupported sort_by: " + req.SortBy) //nolint:wrapcheck
	}

	req.SortBy = column

	if req.SortDir != gDto.SortDirDesc {
		req.SortDir = gDto.SortDirAsc
	}

	return req, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(&err)

	cacheKey := shared.BuildCacheKeyWithQuery(constant.CacheKeyBookingCount, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

// UpdateStatus is the staff override. Confirming is only allowed for direct-flow bookings,
// deposit bookings are confirmed by their payment.
func (s *serviceImpl) UpdateStatus(ctx context.Context, req dto.UpdateBookingStatusRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validator.ValidateStruct(&req); err != nil {
		return err
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == constant.Empty {
		user = constant.RoleAdmin
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found") //nolint:wrapcheck
	}

	var (
		changed   bool
		eventType event.Type
	)

	switch model.Status(req.Status) {
	case model.StatusConfirmed:
		changed, err = s.repo.ConfirmManual(ctx, id, user)
		eventType = event.TypeConfirmed
	case model.StatusCancelled:
		changed, err = s.repo.Cancel(ctx, id, user)
		eventType = event.TypeCancelled
	}

	if err != nil {
		log.Error().Err(err).Str("bookingId", id).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if !changed {
		return failure.Conflict(fmt.Sprintf("booking is %s and cannot be %s", booking.Status, req.Status)) //nolint:wrapcheck
	}

	booking.Status = model.Status(req.Status)

	go func() {
		c := context.WithoutCancel(ctx)

		event.Notify(c, s.cache, s.publisher, event.New(eventType, booking, sourceAdmin))
	}()

	return nil
}
