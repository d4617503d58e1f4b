package event_test

import (
	"braidbook/config"
	"braidbook/infras/kafka"
	kafkaMocks "braidbook/infras/kafka/mocks"
	otelMocks "braidbook/infras/otel/mocks"
	"braidbook/internal/domains/booking/event"
	bookingMocks "braidbook/internal/domains/booking/mocks"
	"braidbook/internal/domains/booking/model"
	cacheMocks "braidbook/shared/cache/mocks"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPublisher_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Kafka.Topics.BookingEvents = "booking-events"

	publisher := event.NewPublisher(mockClient, cfg, otelMocks.NewOtel())

	booking := model.Booking{
		ID:           "booking-1",
		SlotID:       "2026-03-14T09:00",
		CustomerName: "Ama",
		ServiceName:  "Knotless Braids",
		Status:       model.StatusConfirmed,
	}

	t.Run("keys messages by booking id", func(t *testing.T) {
		mockClient.EXPECT().
			SendMessages(gomock.Any(), "booking-events", gomock.Any()).
			DoAndReturn(func(_ context.Context, topic string, messages ...kafka.Message) error {
				require.Len(t, messages, 1)
				assert.Equal(t, "booking-1", messages[0].Key)

				msg, err := messages[0].ToKafkaMessage(topic)
				require.NoError(t, err)

				decoded, err := kafka.DecodeKafkaMessage[event.BookingEvent](msg)
				require.NoError(t, err)
				assert.Equal(t, event.TypeConfirmed, decoded.Type)
				assert.Equal(t, "2026-03-14T09:00", decoded.SlotID)
				assert.Equal(t, "confirmed", decoded.Status)
				assert.Equal(t, "webhook", decoded.Source)

				return nil
			})

		err := publisher.Publish(context.Background(), event.New(event.TypeConfirmed, booking, "webhook"))
		assert.NoError(t, err)
	})

	t.Run("broker error is returned", func(t *testing.T) {
		mockClient.EXPECT().
			SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("broker down"))

		err := publisher.Publish(context.Background(), event.New(event.TypeClaimed, booking, "intake"))
		assert.Error(t, err)
	})

	t.Run("nothing to publish", func(t *testing.T) {
		assert.NoError(t, publisher.Publish(context.Background()))
	})
}

func TestNotify(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockPublisher := bookingMocks.NewMockPublisher(ctrl)

	evt := event.New(event.TypeReleased, model.Booking{ID: "booking-1", Status: model.StatusCancelled}, "sweeper")

	mockCache.EXPECT().Clear(gomock.Any(), "booking:availability:*").Return(nil)
	mockCache.EXPECT().Clear(gomock.Any(), "booking:gets:*").Return(errors.New("redis down"))
	mockCache.EXPECT().Clear(gomock.Any(), "booking:count:*").Return(nil)
	mockPublisher.EXPECT().Publish(gomock.Any(), evt).Return(errors.New("broker down"))

	event.Notify(context.Background(), mockCache, mockPublisher, evt)
}
