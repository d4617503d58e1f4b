package testutil_test

import (
	"braidbook/internal/domains/booking/model"
	"braidbook/internal/testutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var liveSlotIndex = regexp.MustCompile(`(?s)uq_appointments_live_slot\s+ON appointments \(slot_id\)\s+WHERE status IN \(([^)]*)\)`)

func TestLiveSlotIndexMatchesLiveStatuses(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join(testutil.MigrationsDir(t), "000001_create_appointments.up.sql"))
	require.NoError(t, err)

	match := liveSlotIndex.FindStringSubmatch(string(raw))
	require.Len(t, match, 2, "live slot index not found")

	var indexed []string
	for _, status := range strings.Split(match[1], ",") {
		indexed = append(indexed, strings.Trim(strings.TrimSpace(status), "'"))
	}

	live := make([]string, len(model.LiveStatuses))
	for i, status := range model.LiveStatuses {
		live[i] = status.String()
	}

	assert.ElementsMatch(t, live, indexed)
}

func TestNewDBAppliesEveryMigration(t *testing.T) {
	db := testutil.NewDB(t)

	var tables []string
	require.NoError(t, db.Read.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"))

	assert.Equal(t, []string{"appointments", "availability_slots", "gallery_images", "payment_events"}, tables)

	var indexes int
	require.NoError(t, db.Read.Get(&indexes, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'uq_appointments_live_slot'"))
	assert.Equal(t, 1, indexes)
}
