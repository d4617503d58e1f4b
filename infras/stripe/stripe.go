package stripe

//go:generate go run go.uber.org/mock/mockgen -source=./stripe.go -destination=./mocks/stripe_mock.go -package=mocks

import (
	"braidbook/config"
	"braidbook/infras/otel"
	"braidbook/shared/constant"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	stripeGo "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	EventCheckoutSessionCompleted             = "checkout.session.completed"
	EventCheckoutSessionExpired               = "checkout.session.expired"
	EventCheckoutSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutSessionAsyncPaymentFailed    = "checkout.session.async_payment_failed"

	SessionStatusOpen     = string(stripeGo.CheckoutSessionStatusOpen)
	SessionStatusComplete = string(stripeGo.CheckoutSessionStatusComplete)
	SessionStatusExpired  = string(stripeGo.CheckoutSessionStatusExpired)

	PaymentStatusPaid   = string(stripeGo.CheckoutSessionPaymentStatusPaid)
	PaymentStatusUnpaid = string(stripeGo.CheckoutSessionPaymentStatusUnpaid)

	MetadataBookingID = "appointmentId"
	MetadataSlotID    = "slotId"

	otelAttrSessionID = "stripe.session_id"

	// Stripe rejects sessions that expire sooner than 30 minutes after creation
	minSessionLifetime = 31 * time.Minute
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrUpstream         = errors.New("payment processor request failed")
)

// CheckoutParams describes a one-line-item deposit checkout.
type CheckoutParams struct {
	BookingID      string
	SlotID         string
	ProductName    string
	Description    string
	AmountCents    int64
	Currency       string
	SuccessURL     string
	CancelURL      string
	ExpiresAt      time.Time
	IdempotencyKey string
}

type Session struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// BookingID resolves the booking a session belongs to, preferring metadata.
func (s Session) BookingID() string {
	if id := s.Metadata[MetadataBookingID]; id != "" {
		return id
	}

	return s.ClientReferenceID
}

type Event struct {
	ID      string
	Type    string
	Session Session
}

type Stripe interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (Session, error)
	ConstructEvent(payload []byte, signatureHeader string) (Event, error)
}

type stripeImpl struct {
	client    *client.API
	secret    string
	tolerance time.Duration
	timeout   time.Duration
	otel      otel.Otel
}

func New(cfg *config.Config, otel otel.Otel) Stripe {
	stripeCfg := cfg.Payment.Stripe

	if stripeCfg.WebhookSecret == "" {
		log.Warn().Msg("Stripe webhook secret is empty, every webhook will be rejected")
	}

	api := client.New(stripeCfg.SecretKey, nil)

	log.Info().Msg("Stripe client initialized")

	return &stripeImpl{
		client:    api,
		secret:    stripeCfg.WebhookSecret,
		tolerance: time.Duration(stripeCfg.WebhookToleranceSecs) * time.Second,
		timeout:   time.Duration(stripeCfg.RequestTimeoutSeconds) * time.Second,
		otel:      otel,
	}
}

func (s *stripeImpl) CreateCheckoutSession(ctx context.Context, req CheckoutParams) (res Session, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelStripeScopeName, constant.OtelStripeScopeName+".CreateCheckoutSession")
	defer scope.End()
	defer scope.TraceIfError(&err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	expiresAt := req.ExpiresAt
	if floor := time.Now().Add(minSessionLifetime); expiresAt.Before(floor) {
		expiresAt = floor
	}

	params := &stripeGo.CheckoutSessionParams{
		Mode:               stripeGo.String(string(stripeGo.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripeGo.StringSlice([]string{"card"}),
		LineItems: []*stripeGo.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeGo.CheckoutSessionLineItemPriceDataParams{
					Currency: stripeGo.String(req.Currency),
					ProductData: &stripeGo.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripeGo.String(req.ProductName),
						Description: stripeGo.String(req.Description),
					},
					UnitAmount: stripeGo.Int64(req.AmountCents),
				},
				Quantity: stripeGo.Int64(1),
			},
		},
		SuccessURL:        stripeGo.String(req.SuccessURL),
		CancelURL:         stripeGo.String(req.CancelURL),
		ClientReferenceID: stripeGo.String(req.BookingID),
		ExpiresAt:         stripeGo.Int64(expiresAt.Unix()),
	}
	params.Context = ctx
	params.AddMetadata(MetadataBookingID, req.BookingID)
	params.AddMetadata(MetadataSlotID, req.SlotID)
	params.SetIdempotencyKey(req.IdempotencyKey)

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		log.Error().Err(err).Str("bookingId", req.BookingID).Msg("failed to create checkout session")

		return res, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	scope.SetAttribute(otelAttrSessionID, session.ID)

	return fromCheckoutSession(session), nil
}

func (s *stripeImpl) GetCheckoutSession(ctx context.Context, sessionID string) (res Session, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelStripeScopeName, constant.OtelStripeScopeName+".GetCheckoutSession")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(otelAttrSessionID, sessionID)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	params := &stripeGo.CheckoutSessionParams{}
	params.Context = ctx

	session, err := s.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripeGo.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return res, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}

		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to retrieve checkout session")

		return res, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return fromCheckoutSession(session), nil
}

func (s *stripeImpl) ConstructEvent(payload []byte, signatureHeader string) (Event, error) {
	return ConstructEvent(payload, signatureHeader, s.secret, s.tolerance)
}

// ConstructEvent verifies the Stripe-Signature header over the raw payload and decodes
// the event. Signature failures map to ErrInvalidSignature; anything else that keeps the
// payload from being read as an event maps to ErrMalformedEvent.
func ConstructEvent(payload []byte, signatureHeader, secret string, tolerance time.Duration) (Event, error) {
	if secret == "" || signatureHeader == "" {
		return Event{}, ErrInvalidSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return Event{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		}

		return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	if event.ID == "" || event.Type == "" {
		return Event{}, fmt.Errorf("%w: missing id or type", ErrMalformedEvent)
	}

	res := Event{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if event.Data != nil && len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &res.Session); err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
		}
	}

	return res, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func (s *stripeImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.timeout)
}

func fromCheckoutSession(session *stripeGo.CheckoutSession) Session {
	return Session{
		ID:                session.ID,
		URL:               session.URL,
		Status:            string(session.Status),
		PaymentStatus:     string(session.PaymentStatus),
		ClientReferenceID: session.ClientReferenceID,
		Metadata:          session.Metadata,
	}
}
