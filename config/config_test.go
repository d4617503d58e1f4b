package config_test

import (
	"braidbook/config"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.BookingFlowDeposit, cfg.Booking.Flow)
	assert.Equal(t, []string{"09:00", "13:00"}, cfg.Booking.DailySlots)
	assert.Equal(t, int64(2500), cfg.Booking.DepositAmount)
	assert.Equal(t, "schema_migrations", cfg.DB.Postgres.MigrationTable)
	assert.Equal(t, 60, cfg.Cache.TTL)
}

func TestLoadEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("BOOKING_FLOW=direct\nBOOKING_DAILY_SLOTS=10:00,14:00\n"), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("BOOKING_FLOW")
		os.Unsetenv("BOOKING_DAILY_SLOTS")
	})

	cfg, err := config.Load(file, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, config.BookingFlowDirect, cfg.Booking.Flow)
	assert.Equal(t, []string{"10:00", "14:00"}, cfg.Booking.DailySlots)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("BOOKING_DEPOSIT_AMOUNT", "twenty five")

	_, err := config.Load()
	assert.Error(t, err)
}
