package dto

import (
	"braidbook/internal/domains/availability/model"
	bookingModel "braidbook/internal/domains/booking/model"
	gModel "braidbook/shared/model"
)

type PublishAvailabilityRequest struct {
	Date  string   `json:"date"  validate:"required,dateonly"`
	Times []string `json:"times" validate:"omitempty,dive,dailyslot"`
}

// ToModels builds one row per clock, unbooked until Publish checks it against confirmed bookings. Times falls back to defaults when empty.
func (r *PublishAvailabilityRequest) ToModels(defaults []string, user string) []model.Availability {
	clocks := r.Times
	if len(clocks) == 0 {
		clocks = defaults
	}

	models := make([]model.Availability, 0, len(clocks))
	for _, clock := range clocks {
		models = append(models, model.Availability{
			ID:       bookingModel.SlotKeyFor(r.Date, clock),
			SlotDate: r.Date,
			SlotTime: clock,
			Metadata: gModel.NewMetadata(user),
		})
	}

	return models
}

type PublishAvailabilityResponse struct {
	Date      string `json:"date"`
	Published int    `json:"published"`
}

type AvailabilityResponse struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	IsBooked bool   `json:"is_booked"`
	Version  int64  `json:"version"`
}

func (r *AvailabilityResponse) FromModel(m model.Availability) {
	r.ID = m.ID
	r.Date = m.SlotDate
	r.Time = m.SlotTime
	r.IsBooked = m.IsBooked
	r.Version = m.Version
}

type GetAvailabilityResponse struct {
	Slots []AvailabilityResponse `json:"slots"`
}

func (r *GetAvailabilityResponse) FromModels(models []model.Availability) {
	r.Slots = make([]AvailabilityResponse, len(models))
	for i, m := range models {
		r.Slots[i].FromModel(m)
	}
}
