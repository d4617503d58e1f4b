package schedule

import (
	"braidbook/config"
	"braidbook/infras/otel"
	"braidbook/internal/domains/payment/service"
	"braidbook/shared/constant"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultInterval = 5 * time.Minute
	flushTimeout    = 5 * time.Second
)

// Sweeper periodically reconciles pending-deposit bookings against Stripe.
type Sweeper struct {
	config  *config.Config
	payment service.Payment
	otel    otel.Otel
}

func New(cfg *config.Config, payment service.Payment, otel otel.Otel) *Sweeper {
	return &Sweeper{
		config:  cfg,
		payment: payment,
		otel:    otel,
	}
}

func (s *Sweeper) interval() time.Duration {
	if s.config.Sweeper.IntervalSeconds <= 0 {
		return defaultInterval
	}

	return time.Duration(s.config.Sweeper.IntervalSeconds) * time.Second
}

// RunOnce performs a single reconciliation pass.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelScheduleScopeName, constant.OtelScheduleScopeName+".Sweep")
	defer scope.End()

	report, err := s.payment.Reconcile(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("sweeper pass failed")

		return err
	}

	scope.SetAttributes(map[string]any{
		"sweeper.checked":   report.Checked,
		"sweeper.confirmed": report.Confirmed,
		"sweeper.released":  report.Released,
		"sweeper.failed":    report.Failed,
	})

	return nil
}

// Run sweeps immediately and then on every tick until ctx is cancelled. A failed pass does not stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval()).Msg("Starting deposit sweeper.")

	_ = s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Deposit sweeper stopped.")

			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// Serve runs the loop until SIGINT or SIGTERM.
func (s *Sweeper) Serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := s.otel.Shutdown(flushCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to flush sweeper traces.")
	}
}
