package model

import (
	"braidbook/shared/constant"
	"braidbook/shared/model"
	"strings"
	"time"
)

const (
	TableName  = "appointments"
	EntityName = "appointment"

	FieldID              = "id"
	FieldSlotID          = "slot_id"
	FieldCustomerName    = "customer_name"
	FieldCustomerPhone   = "customer_phone"
	FieldCustomerEmail   = "customer_email"
	FieldServiceName     = "service_name"
	FieldStatus          = "status"
	FieldStripeSessionID = "stripe_session_id"
)

const slotKeySeparator = "T"

type Status string

const (
	StatusPendingDeposit Status = "pending_deposit"
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusCancelled      Status = "cancelled"
)

// LiveStatuses occupy a slot. The partial unique index on appointments(slot_id) uses the same set.
var LiveStatuses = []Status{StatusPendingDeposit, StatusPending, StatusConfirmed}

func (s Status) IsLive() bool {
	return s == StatusPendingDeposit || s == StatusPending || s == StatusConfirmed
}

func (s Status) String() string {
	return string(s)
}

type Booking struct {
	ID              string `db:"id"`
	SlotID          string `db:"slot_id"`
	CustomerName    string `db:"customer_name"`
	CustomerPhone   string `db:"customer_phone"`
	CustomerEmail   string `db:"customer_email"`
	ServiceName     string `db:"service_name"`
	Status          Status `db:"status"`
	StripeSessionID string `db:"stripe_session_id"`
	model.Metadata
}

// SlotKey formats t as the "YYYY-MM-DDTHH:MM" key of the slot starting at t, in loc.
func SlotKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(constant.DateOnlyFormat + slotKeySeparator + constant.ClockFormat)
}

func SlotKeyFor(date, clock string) string {
	return date + slotKeySeparator + clock
}

// SplitSlotKey returns the date and clock parts of a generated slot key.
// Opaque keys that do not follow the format report ok=false.
func SplitSlotKey(key string) (date, clock string, ok bool) {
	date, clock, found := strings.Cut(key, slotKeySeparator)
	if !found {
		return "", "", false
	}

	if _, err := time.Parse(constant.DateOnlyFormat, date); err != nil {
		return "", "", false
	}

	if _, err := time.Parse(constant.ClockFormat, clock); err != nil {
		return "", "", false
	}

	return date, clock, true
}
