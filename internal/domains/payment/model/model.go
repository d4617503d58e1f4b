package model

import "time"

const (
	TableName  = "payment_events"
	EntityName = "payment_event"

	FieldEventID    = "event_id"
	FieldEventType  = "event_type"
	FieldBookingID  = "booking_id"
	FieldOutcome    = "outcome"
	FieldReceivedAt = "received_at"
)

type Outcome string

const (
	// OutcomeApplied means the event moved a booking to a new status.
	OutcomeApplied Outcome = "applied"
	// OutcomeNoop means the booking had already left the state the event acts on.
	OutcomeNoop    Outcome = "noop"
	OutcomeIgnored Outcome = "ignored"
)

// PaymentEvent is the audit row of a verified webhook delivery.
type PaymentEvent struct {
	EventID    string    `db:"event_id"`
	EventType  string    `db:"event_type"`
	BookingID  string    `db:"booking_id"`
	Outcome    Outcome   `db:"outcome"`
	ReceivedAt time.Time `db:"received_at"`
}

// ReconcileReport counts what one sweeper pass did.
type ReconcileReport struct {
	Checked   int `json:"checked"`
	Confirmed int `json:"confirmed"`
	Released  int `json:"released"`
	Untouched int `json:"untouched"`
	Failed    int `json:"failed"`
}
