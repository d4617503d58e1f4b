package service

import (
	"braidbook/config"
	"braidbook/infras/otel"
	"braidbook/infras/stripe"
	"braidbook/internal/domains/booking/event"
	bookingModel "braidbook/internal/domains/booking/model"
	bookingRepo "braidbook/internal/domains/booking/repository"
	"braidbook/internal/domains/payment/model"
	"braidbook/internal/domains/payment/repository"
	"braidbook/shared"
	"braidbook/shared/cache"
	"braidbook/shared/constant"
	"braidbook/shared/failure"
	"braidbook/shared/timezone"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

const (
	sourceWebhook = "webhook"
	sourceSweeper = "sweeper"

	msgInvalidSignature = "invalid webhook signature"
	msgMalformedEvent   = "malformed webhook event"
)

type Payment interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Reconcile(ctx context.Context) (model.ReconcileReport, error)
}

type serviceImpl struct {
	bookingRepo bookingRepo.Booking
	eventRepo   repository.PaymentEvent
	stripe      stripe.Stripe
	publisher   event.Publisher
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(
	bookingRepo bookingRepo.Booking,
	eventRepo repository.PaymentEvent,
	stripe stripe.Stripe,
	publisher event.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Payment {
	return &serviceImpl{
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
		stripe:      stripe,
		publisher:   publisher,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

// HandleWebhook verifies a Stripe delivery and applies it to the booking it names.
// Redelivered events and events for bookings that already moved on are acknowledged without effect.
func (s *serviceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".HandleWebhook")
	defer scope.End()
	defer scope.TraceIfError(&err)

	evt, err := s.stripe.ConstructEvent(payload, signature)
	if err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) {
			log.Warn().Err(err).Msg("rejected webhook with invalid signature")

			return failure.BadRequestFromString(msgInvalidSignature) //nolint:wrapcheck
		}

		log.Warn().Err(err).Msg("rejected malformed webhook")

		return failure.BadRequestFromString(msgMalformedEvent) //nolint:wrapcheck
	}

	recorded, err := s.eventRepo.Recorded(ctx, evt.ID)
	if err != nil {
		return fmt.Errorf("failed to look up payment event: %w", err)
	}

	if recorded {
		log.Info().Str("eventId", evt.ID).Str("type", evt.Type).Msg("duplicate webhook delivery acknowledged")

		return nil
	}

	bookingID := evt.Session.BookingID()

	outcome, err := s.apply(ctx, evt, bookingID)
	if err != nil {
		return err
	}

	record := model.PaymentEvent{
		EventID:    evt.ID,
		EventType:  evt.Type,
		BookingID:  bookingID,
		Outcome:    outcome,
		ReceivedAt: timezone.Now(),
	}

	if err := s.eventRepo.Record(ctx, record); err != nil {
		log.Error().Err(err).Str("eventId", evt.ID).Msg("failed to record payment event")
	}

	return nil
}

func (s *serviceImpl) apply(ctx context.Context, evt stripe.Event, bookingID string) (model.Outcome, error) {
	logEvt := log.With().Str("eventId", evt.ID).Str("type", evt.Type).Str("bookingId", bookingID).Logger()

	var (
		changed bool
		err     error
		kind    event.Type
	)

	switch evt.Type {
	case stripe.EventCheckoutSessionCompleted, stripe.EventCheckoutSessionAsyncPaymentSucceeded:
		if evt.Session.PaymentStatus == stripe.PaymentStatusUnpaid {
			logEvt.Info().Msg("checkout completed without payment, waiting for async outcome")

			return model.OutcomeIgnored, nil
		}

		if bookingID == "" {
			logEvt.Warn().Msg("webhook session carries no booking reference")

			return model.OutcomeIgnored, nil
		}

		kind = event.TypeConfirmed
		changed, err = s.bookingRepo.Confirm(ctx, bookingID, sourceWebhook)
	case stripe.EventCheckoutSessionExpired, stripe.EventCheckoutSessionAsyncPaymentFailed:
		if bookingID == "" {
			logEvt.Warn().Msg("webhook session carries no booking reference")

			return model.OutcomeIgnored, nil
		}

		kind = event.TypeReleased
		changed, err = s.bookingRepo.Release(ctx, bookingID, sourceWebhook)
	default:
		logEvt.Debug().Msg("ignoring unhandled webhook type")

		return model.OutcomeIgnored, nil
	}

	if err != nil {
		logEvt.Error().Err(err).Msg("failed to apply webhook")

		return "", fmt.Errorf("failed to apply %s: %w", evt.Type, err)
	}

	if !changed {
		logEvt.Warn().Msg("booking no longer pending deposit, webhook acknowledged without change")

		return model.OutcomeNoop, nil
	}

	logEvt.Info().Msg("webhook applied")

	s.notify(ctx, kind, bookingID, evt.Session.Metadata[stripe.MetadataSlotID], sourceWebhook)

	return model.OutcomeApplied, nil
}

// Reconcile walks every pending_deposit booking and settles it against the processor's view of
// its checkout session. One booking failing never stops the pass.
func (s *serviceImpl) Reconcile(ctx context.Context) (res model.ReconcileReport, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reconcile")
	defer scope.End()
	defer scope.TraceIfError(&err)

	pending, err := s.bookingRepo.ListPendingDeposit(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list pending deposits")

		return res, fmt.Errorf("failed to list pending deposits: %w", err)
	}

	now := timezone.Now()

	for _, booking := range pending {
		res.Checked++

		kind, err := s.reconcileOne(ctx, booking, now)
		if err != nil {
			res.Failed++

			log.Error().Err(err).Str("bookingId", booking.ID).Msg("failed to reconcile booking")

			continue
		}

		switch kind {
		case event.TypeConfirmed:
			res.Confirmed++
		case event.TypeReleased:
			res.Released++
		default:
			res.Untouched++
		}
	}

	log.Info().
		Int("checked", res.Checked).
		Int("confirmed", res.Confirmed).
		Int("released", res.Released).
		Int("untouched", res.Untouched).
		Int("failed", res.Failed).
		Msg("reconcile pass finished")

	return res, nil
}

// reconcileOne returns the event type of the transition it made, or "" when it left the booking alone.
func (s *serviceImpl) reconcileOne(ctx context.Context, booking bookingModel.Booking, now time.Time) (event.Type, error) {
	stale := now.Sub(booking.CreatedAt) > s.expiryWindow()

	if booking.StripeSessionID == "" {
		if !stale {
			return "", nil
		}

		return s.release(ctx, booking, "no checkout session attached")
	}

	session, err := s.fetchSession(ctx, booking.StripeSessionID)
	if err != nil {
		if errors.Is(err, stripe.ErrSessionNotFound) {
			if !stale {
				return "", nil
			}

			return s.release(ctx, booking, "checkout session not found")
		}

		return "", err
	}

	switch {
	case session.PaymentStatus == stripe.PaymentStatusPaid:
		changed, err := s.bookingRepo.Confirm(ctx, booking.ID, sourceSweeper)
		if err != nil {
			return "", fmt.Errorf("failed to confirm booking: %w", err)
		}

		if !changed {
			return "", nil
		}

		log.Warn().Str("bookingId", booking.ID).Str("sessionId", session.ID).Msg("confirmed paid booking whose webhook never arrived")

		s.notify(ctx, event.TypeConfirmed, booking.ID, booking.SlotID, sourceSweeper)

		return event.TypeConfirmed, nil
	case session.Status == stripe.SessionStatusExpired:
		return s.release(ctx, booking, "checkout session expired")
	default:
		return "", nil
	}
}

func (s *serviceImpl) release(ctx context.Context, booking bookingModel.Booking, reason string) (event.Type, error) {
	changed, err := s.bookingRepo.Release(ctx, booking.ID, sourceSweeper)
	if err != nil {
		return "", fmt.Errorf("failed to release booking: %w", err)
	}

	if !changed {
		return "", nil
	}

	log.Info().Str("bookingId", booking.ID).Str("reason", reason).Msg("released abandoned booking")

	s.notify(ctx, event.TypeReleased, booking.ID, booking.SlotID, sourceSweeper)

	return event.TypeReleased, nil
}

func (s *serviceImpl) fetchSession(ctx context.Context, sessionID string) (stripe.Session, error) {
	b := backoff.NewExponentialBackOff()
	if s.cfg.Sweeper.RetryInitialIntervalMs > 0 {
		b.InitialInterval = time.Duration(s.cfg.Sweeper.RetryInitialIntervalMs) * time.Millisecond
	}

	tries := s.cfg.Sweeper.MaxRetries
	if tries < 1 {
		tries = 1
	}

	session, err := backoff.Retry(ctx, func() (stripe.Session, error) {
		session, err := s.stripe.GetCheckoutSession(ctx, sessionID)
		if errors.Is(err, stripe.ErrSessionNotFound) {
			return session, backoff.Permanent(err)
		}

		return session, err //nolint:wrapcheck
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(tries)))
	if err != nil {
		return session, fmt.Errorf("failed to fetch checkout session %s: %w", sessionID, err)
	}

	return session, nil
}

func (s *serviceImpl) expiryWindow() time.Duration {
	return time.Duration(s.cfg.Booking.DepositExpiryMinutes) * time.Minute
}

// notify loads the booking for a complete event payload and fans it out off the request path.
func (s *serviceImpl) notify(ctx context.Context, kind event.Type, bookingID, slotID, source string) {
	go func() {
		c := context.WithoutCancel(ctx)

		booking, err := s.bookingRepo.Get(c, shared.FilterByID(bookingID, bookingModel.FieldID, bookingModel.TableName))
		if err != nil {
			log.Warn().Err(err).Str("bookingId", bookingID).Msg("failed to load booking for event, publishing partial event")

			booking = bookingModel.Booking{ID: bookingID, SlotID: slotID}
			if kind == event.TypeConfirmed {
				booking.Status = bookingModel.StatusConfirmed
			} else {
				booking.Status = bookingModel.StatusCancelled
			}
		}

		event.Notify(c, s.cache, s.publisher, event.New(kind, booking, source))
	}()
}
