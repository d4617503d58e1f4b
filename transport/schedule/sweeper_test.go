package schedule_test

import (
	"braidbook/config"
	otelMocks "braidbook/infras/otel/mocks"
	"braidbook/internal/domains/payment/model"
	"braidbook/transport/schedule"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPayment struct {
	passes atomic.Int32
	err    error
}

func (c *countingPayment) HandleWebhook(context.Context, []byte, string) error {
	return nil
}

func (c *countingPayment) Reconcile(context.Context) (model.ReconcileReport, error) {
	c.passes.Add(1)

	return model.ReconcileReport{Checked: 1}, c.err
}

func TestRunOnce(t *testing.T) {
	payment := &countingPayment{}
	tracer := otelMocks.NewOtel()
	sweeper := schedule.New(&config.Config{}, payment, tracer)

	require.NoError(t, sweeper.RunOnce(context.Background()))
	assert.Equal(t, int32(1), payment.passes.Load())

	payment.err = errors.New("database unavailable")
	assert.ErrorIs(t, sweeper.RunOnce(context.Background()), payment.err)

	spans := tracer.Spans("schedule.Sweep")
	require.Len(t, spans, 2)
	assert.Equal(t, 1, spans[0].Attributes["sweeper.checked"])
	assert.True(t, spans[0].Ended)
	assert.Equal(t, []error{payment.err}, spans[1].Errors)
}

func TestRun(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sweeper.IntervalSeconds = 1

	payment := &countingPayment{err: errors.New("stripe down")}
	sweeper := schedule.New(cfg, payment, otelMocks.NewOtel())

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})

	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("sweeper did not stop after its context ended")
	}

	assert.Equal(t, int32(2), payment.passes.Load(), "one pass at start and one per tick, failures included")
}
