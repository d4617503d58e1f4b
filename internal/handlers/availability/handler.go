package availability

import (
	"braidbook/infras/otel"
	"braidbook/internal/domains/availability/model/dto"
	"braidbook/internal/domains/availability/service"
	"braidbook/shared/constant"
	"braidbook/shared/validator"
	"braidbook/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Availability
	otel    otel.Otel
}

func New(service service.Availability, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) AdminRouter(router chi.Router) {
	router.Route("/admin/availability", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.PublishAvailability)
		routerGroup.Get("/", handler.GetAvailability)
	})
}

// PublishAvailability opens a date for booking.
// @Summary Publish availability
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.PublishAvailabilityRequest true "Date and optional times"
// @Success 201 {object} response.Data[dto.PublishAvailabilityResponse]
// @Failure 400 {object} response.Error
// @Router /v1/admin/availability [post]
// @Security BearerAuth
func (handler *Handler) PublishAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PublishAvailability")
	defer scope.End()

	req := dto.PublishAvailabilityRequest{}

	if err := validator.Decode(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to decode request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Publish(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to publish availability")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusCreated, res)
}

// @Summary Published availability of a date
// @Tags Admin
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetAvailabilityResponse]
// @Router /v1/admin/availability [get]
// @Security BearerAuth
func (handler *Handler) GetAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPublishedAvailability")
	defer scope.End()

	res, err := handler.service.GetByDate(ctx, request.URL.Query().Get("date"))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get published availability")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
