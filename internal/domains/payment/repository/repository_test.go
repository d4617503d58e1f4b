package repository_test

import (
	"braidbook/infras/otel/mocks"
	"braidbook/internal/domains/payment/model"
	"braidbook/internal/domains/payment/repository"
	"braidbook/internal/testutil"
	"braidbook/shared/timezone"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	repo := repository.New(testutil.NewDB(t), mocks.NewOtel())
	ctx := context.Background()

	recorded, err := repo.Recorded(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, recorded)

	event := model.PaymentEvent{
		EventID:    "evt_1",
		EventType:  "checkout.session.completed",
		BookingID:  "b-1",
		Outcome:    model.OutcomeApplied,
		ReceivedAt: timezone.Now(),
	}

	require.NoError(t, repo.Record(ctx, event))
	require.NoError(t, repo.Record(ctx, event), "a second delivery of the same event is absorbed")

	recorded, err = repo.Recorded(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = repo.Recorded(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, recorded)
}
