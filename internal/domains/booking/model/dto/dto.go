package dto

import (
	"braidbook/internal/domains/booking/model"
	"braidbook/shared"
	gDto "braidbook/shared/dto"
	gModel "braidbook/shared/model"
	"strings"

	"github.com/google/uuid"
)

const (
	SlotStatusAvailable = "AVAILABLE"
	SlotStatusBooked    = "BOOKED"

	ResponseStatusSuccess = "success"
)

// InitiateBookingRequest is the deposit-gated intake body.
type InitiateBookingRequest struct {
	SlotID        string `json:"slotId"        validate:"required,max=64"`
	CustomerName  string `json:"customerName"  validate:"required,max=100"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email,max=100"`
	CustomerPhone string `json:"customerPhone" validate:"required,max=20"`
	ServiceName   string `json:"serviceName"   validate:"required,max=100"`
}

func (r *InitiateBookingRequest) Normalize() {
	r.SlotID = strings.TrimSpace(r.SlotID)
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.TrimSpace(r.CustomerEmail)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.ServiceName = strings.TrimSpace(r.ServiceName)
}

func (r *InitiateBookingRequest) ToModel(user string) model.Booking {
	return model.Booking{
		ID:            uuid.NewString(),
		SlotID:        r.SlotID,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		CustomerEmail: r.CustomerEmail,
		ServiceName:   r.ServiceName,
		Status:        model.StatusPendingDeposit,
		Metadata:      gModel.NewMetadata(user),
	}
}

type InitiateBookingResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// CreateBookingRequest is the direct (non-paid) intake body.
type CreateBookingRequest struct {
	ClientName    string `json:"clientName"              validate:"required,max=100"`
	ClientPhone   string `json:"clientPhone"             validate:"required,max=20"`
	ClientEmail   string `json:"clientEmail"             validate:"omitempty,email,max=100"`
	ServiceName   string `json:"serviceName"             validate:"required,max=100"`
	StartTime     string `json:"startTime"               validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	DurationHours int    `json:"durationHours,omitempty" validate:"omitempty,min=1,max=12"`
}

func (r *CreateBookingRequest) Normalize() {
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.ClientPhone = strings.TrimSpace(r.ClientPhone)
	r.ClientEmail = strings.TrimSpace(r.ClientEmail)
	r.ServiceName = strings.TrimSpace(r.ServiceName)
	r.StartTime = strings.TrimSpace(r.StartTime)
}

func (r *CreateBookingRequest) ToModel(slotID, user string) model.Booking {
	return model.Booking{
		ID:            uuid.NewString(),
		SlotID:        slotID,
		CustomerName:  r.ClientName,
		CustomerPhone: r.ClientPhone,
		CustomerEmail: r.ClientEmail,
		ServiceName:   r.ServiceName,
		Status:        model.StatusPending,
		Metadata:      gModel.NewMetadata(user),
	}
}

type CreateBookingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SlotStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (r *SlotStatusResponse) FromLive(slotID string, live bool) {
	r.ID = slotID
	r.Status = SlotStatusAvailable

	if live {
		r.Status = SlotStatusBooked
	}
}

type AvailableSlot struct {
	ID     string `json:"id"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

type AvailabilityResponse struct {
	Date        string          `json:"date"`
	Slots       []AvailableSlot `json:"slots"`
	BookedTimes []string        `json:"bookedTimes"`
}

// FromTaken lists every daily clock for date, marking the ones whose slot key is taken.
func (r *AvailabilityResponse) FromTaken(date string, clocks []string, taken map[string]bool) {
	r.Date = date
	r.Slots = make([]AvailableSlot, len(clocks))
	r.BookedTimes = []string{}

	for i, clock := range clocks {
		slotID := model.SlotKeyFor(date, clock)

		r.Slots[i].ID = slotID
		r.Slots[i].Time = clock
		r.Slots[i].Status = SlotStatusAvailable

		if taken[slotID] {
			r.Slots[i].Status = SlotStatusBooked
			r.BookedTimes = append(r.BookedTimes, clock)
		}
	}
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled"`
}

type BookingResponse struct {
	ID              string `json:"id"`
	SlotID          string `json:"slot_id"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	ServiceName     string `json:"service_name"`
	Status          string `json:"status"`
	StripeSessionID string `json:"stripe_session_id,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.SlotID = model.SlotID
	r.CustomerName = model.CustomerName
	r.CustomerPhone = model.CustomerPhone
	r.CustomerEmail = model.CustomerEmail
	r.ServiceName = model.ServiceName
	r.Status = model.Status.String()
	r.StripeSessionID = model.StripeSessionID
	r.Metadata = gDto.NewMetadata(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
