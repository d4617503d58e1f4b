package event

//go:generate go run go.uber.org/mock/mockgen -source=./event.go -destination=../mocks/event_mock.go -package=mocks

import (
	"braidbook/config"
	"braidbook/infras/kafka"
	"braidbook/infras/otel"
	"braidbook/internal/domains/booking/model"
	"braidbook/shared"
	"braidbook/shared/cache"
	"braidbook/shared/constant"
	"braidbook/shared/timezone"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type Type string

const (
	TypeClaimed   Type = "booking.claimed"
	TypeConfirmed Type = "booking.confirmed"
	TypeReleased  Type = "booking.released"
	TypeCancelled Type = "booking.cancelled"
)

// BookingEvent is the message consumed by the notification and calendar workers.
type BookingEvent struct {
	Type          Type      `json:"type"`
	BookingID     string    `json:"bookingId"`
	SlotID        string    `json:"slotId,omitempty"`
	Status        string    `json:"status"`
	CustomerName  string    `json:"customerName,omitempty"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
	ServiceName   string    `json:"serviceName,omitempty"`
	DurationHours int       `json:"durationHours,omitempty"`
	Source        string    `json:"source"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func New(eventType Type, booking model.Booking, source string) BookingEvent {
	return BookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		SlotID:        booking.SlotID,
		Status:        booking.Status.String(),
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		ServiceName:   booking.ServiceName,
		Source:        source,
		OccurredAt:    timezone.Now(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...BookingEvent) error
}

type publisherImpl struct {
	client kafka.Client
	topic  string
	otel   otel.Otel
}

func NewPublisher(client kafka.Client, cfg *config.Config, otel otel.Otel) Publisher {
	return &publisherImpl{
		client: client,
		topic:  cfg.Kafka.Topics.BookingEvents,
		otel:   otel,
	}
}

// Publish sends events keyed by booking id, so one booking's history stays on one partition.
func (p *publisherImpl) Publish(ctx context.Context, events ...BookingEvent) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".booking.Publish")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(events))
	for i, evt := range events {
		messages[i] = kafka.Message{Key: evt.BookingID, Value: evt}
	}

	if err = p.client.SendMessages(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish booking events: %w", err)
	}

	return nil
}

// Notify drops every cached view derived from slot occupancy and publishes events.
// Failures are logged only; callers run it off the request path.
func Notify(ctx context.Context, redisCache cache.RedisCache, publisher Publisher, events ...BookingEvent) {
	shared.InvalidateCaches(ctx, redisCache, constant.CacheKeyBookingAvailability)
	shared.InvalidateCaches(ctx, redisCache, constant.CacheKeyBookingList)
	shared.InvalidateCaches(ctx, redisCache, constant.CacheKeyBookingCount)

	if err := publisher.Publish(ctx, events...); err != nil {
		log.Error().Err(err).Int("count", len(events)).Msg("failed to publish booking events")
	}
}
