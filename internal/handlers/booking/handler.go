package booking

import (
	"braidbook/config"
	"braidbook/infras/otel"
	"braidbook/internal/domains/booking/model"
	"braidbook/internal/domains/booking/model/dto"
	"braidbook/internal/domains/booking/service"
	"braidbook/shared/constant"
	gDto "braidbook/shared/dto"
	"braidbook/shared/validator"
	"braidbook/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	paramSlotID = "slotId"
	paramDate   = "date"
)

type Handler struct {
	service service.Booking
	cfg     *config.Config
	otel    otel.Otel
}

func New(service service.Booking, cfg *config.Config, otel otel.Otel) Handler {
	return Handler{
		service: service,
		cfg:     cfg,
		otel:    otel,
	}
}

// IntakeRouter mounts the one intake contract selected by BOOKING_FLOW.
func (handler *Handler) IntakeRouter(router chi.Router) {
	if handler.cfg.Booking.Flow == config.BookingFlowDirect {
		router.Post("/book", handler.CreateBooking)

		return
	}

	router.Post("/bookings/init", handler.InitiateBooking)
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/slots/{"+paramSlotID+"}", handler.GetSlotStatus)
	router.Get("/availability", handler.GetAvailability)
}

func (handler *Handler) AdminRouter(router chi.Router) {
	router.Route("/admin/bookings", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Patch("/{id}", handler.UpdateBookingStatus)
	})
}

// InitiateBooking claims a slot and starts the deposit checkout.
// @Summary Start a deposit-backed booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.InitiateBookingRequest true "Initiate Booking Request"
// @Success 200 {object} dto.InitiateBookingResponse
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/init [post]
func (handler *Handler) InitiateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".InitiateBooking")
	defer scope.End()

	req := dto.InitiateBookingRequest{}

	if err := validator.Decode(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to decode request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.InitiateBooking(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to initiate booking")

		response.WithError(writer, err)

		return
	}

	response.WithBody(writer, http.StatusOK, res)
}

// CreateBooking records a direct booking request for staff confirmation.
// @Summary Request a booking without deposit
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} dto.CreateBookingResponse
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/book [post]
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Decode(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to decode request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.CheckAndCreateBooking(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	response.WithBody(writer, http.StatusCreated, res)
}

// GetSlotStatus reports whether a slot is still bookable.
// @Summary Slot status
// @Tags Booking
// @Produce json
// @Param slotId path string true "Slot key"
// @Success 200 {object} dto.SlotStatusResponse
// @Router /v1/slots/{slotId} [get]
func (handler *Handler) GetSlotStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlotStatus")
	defer scope.End()

	res, err := handler.service.SlotStatus(ctx, chi.URLParam(request, paramSlotID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get slot status")

		response.WithError(writer, err)

		return
	}

	response.WithBody(writer, http.StatusOK, res)
}

// GetAvailability lists the daily slots of a date with their status.
// @Summary Availability by date
// @Tags Booking
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.AvailabilityResponse
// @Failure 400 {object} response.Error
// @Router /v1/availability [get]
func (handler *Handler) GetAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAvailability")
	defer scope.End()

	res, err := handler.service.AvailabilityByDate(ctx, request.URL.Query().Get(paramDate))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get availability")

		response.WithError(writer, err)

		return
	}

	response.WithBody(writer, http.StatusOK, res)
}

// GetBookings lists bookings for the studio, ordered by slot.
// @Summary List bookings
// @Tags Admin
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (pending_deposit, pending, confirmed, cancelled)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse]
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Router /v1/admin/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if status := request.URL.Query().Get(model.FieldStatus); status != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	bookings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, bookings)
}

// UpdateBookingStatus confirms or cancels a booking.
// @Summary Change booking status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateBookingStatusRequest true "New status"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/admin/bookings/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateBookingStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateBookingStatus")
	defer scope.End()

	req := dto.UpdateBookingStatusRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	id := chi.URLParam(request, constant.RequestParamID)

	if err := handler.service.UpdateStatus(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("id", id).Msg("failed to update booking status")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking " + id + " moved to " + req.Status + " by " + user)

	response.WithMessage(writer, http.StatusOK, "Booking status updated successfully")
}
