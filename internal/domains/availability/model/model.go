package model

import "braidbook/shared/model"

const (
	TableName  = "availability_slots"
	EntityName = "availability"

	FieldID       = "id"
	FieldSlotDate = "slot_date"
	FieldSlotTime = "slot_time"
	FieldIsBooked = "is_booked"
	FieldVersion  = "version"
)

// Availability mirrors one published slot for calendar display. IsBooked flips only
// through booking confirmation or cancellation, each bumping Version.
type Availability struct {
	ID       string `db:"id"`
	SlotDate string `db:"slot_date"`
	SlotTime string `db:"slot_time"`
	IsBooked bool   `db:"is_booked"`
	Version  int64  `db:"version"`
	model.Metadata
}
