package payment

import (
	"braidbook/config"
	"braidbook/infras/otel"
	"braidbook/internal/domains/payment/service"
	"braidbook/shared/constant"
	"braidbook/shared/failure"
	"braidbook/transport/http/response"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const defaultMaxBodyBytes = 64 << 10

type WebhookResponse struct {
	Received bool `json:"received"`
}

type Handler struct {
	service service.Payment
	cfg     *config.Config
	otel    otel.Otel
}

func New(service service.Payment, cfg *config.Config, otel otel.Otel) Handler {
	return Handler{
		service: service,
		cfg:     cfg,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/webhook", handler.Webhook)
}

func (handler *Handler) AdminRouter(router chi.Router) {
	router.Post("/admin/reconcile", handler.Reconcile)
}

// Webhook receives Stripe checkout events. The signature covers the raw body, so it is read untouched.
// @Summary Stripe webhook
// @Tags Payment
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/webhook [post]
func (handler *Handler) Webhook(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Webhook")
	defer scope.End()

	limit := handler.cfg.Payment.Stripe.WebhookMaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}

	payload, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = failure.BadRequestFromString("webhook payload too large")
		} else {
			err = failure.BadRequestFromString("failed to read webhook payload")
		}

		scope.TraceError(err)
		log.Warn().Err(err).Msg("rejected webhook body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.HandleWebhook(ctx, payload, request.Header.Get(constant.RequestHeaderStripeSignature)); err != nil {
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	response.WithBody(writer, http.StatusOK, WebhookResponse{Received: true})
}

// Reconcile runs one sweeper pass on demand.
// @Summary Reconcile pending deposits
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Data[model.ReconcileReport]
// @Failure 500 {object} response.Error
// @Router /v1/admin/reconcile [post]
// @Security BearerAuth
func (handler *Handler) Reconcile(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Reconcile")
	defer scope.End()

	report, err := handler.service.Reconcile(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to reconcile pending deposits")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, report)
}
