package model_test

import (
	"braidbook/internal/domains/booking/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_IsLive(t *testing.T) {
	assert.True(t, model.StatusPendingDeposit.IsLive())
	assert.True(t, model.StatusPending.IsLive())
	assert.True(t, model.StatusConfirmed.IsLive())
	assert.False(t, model.StatusCancelled.IsLive())
	assert.False(t, model.Status("deleted").IsLive())
}

func TestSlotKey(t *testing.T) {
	loc := time.FixedZone("studio", -5*60*60)
	start := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-14T09:00", model.SlotKey(start, loc))
	assert.Equal(t, "2026-03-14T09:00", model.SlotKeyFor("2026-03-14", "09:00"))
}

func TestSplitSlotKey(t *testing.T) {
	date, clock, ok := model.SplitSlotKey("2026-03-14T13:00")
	assert.True(t, ok)
	assert.Equal(t, "2026-03-14", date)
	assert.Equal(t, "13:00", clock)

	for _, key := range []string{"race-test-1700000000", "2026-03-14", "2026-13-40T09:00", "2026-03-14T9am"} {
		_, _, ok := model.SplitSlotKey(key)
		assert.False(t, ok, key)
	}
}
