// Package timezone pins the studio's wall clock. Slot ids, day boundaries and audit stamps all use
// the location named by APP_TIMEZONE (an IANA name), UTC when unset or unknown.
package timezone

import (
	"braidbook/config"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var location atomic.Pointer[time.Location]

func init() {
	Use(config.Get().App.Timezone)
}

// Use switches the studio location. An unknown name keeps UTC and is reported.
func Use(name string) *time.Location {
	loc := time.UTC

	if name != "" {
		loaded, err := time.LoadLocation(name)
		if err != nil {
			log.Error().Err(err).Str("timezone", name).Msg("Unknown timezone, falling back to UTC")
		} else {
			loc = loaded
		}
	}

	location.Store(loc)

	return loc
}

func GetLocation() *time.Location {
	if loc := location.Load(); loc != nil {
		return loc
	}

	return time.UTC
}

func Now() time.Time {
	return time.Now().In(GetLocation())
}

// Format renders t on the studio clock.
func Format(t time.Time, layout string) string {
	return t.In(GetLocation()).Format(layout)
}
