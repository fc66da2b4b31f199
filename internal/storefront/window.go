// Package storefront holds the pure resolvers behind the menu: time windows,
// availability, promotions, pricing and catalog filtering. Every function
// takes the current instant and the settings it needs as arguments.
package storefront

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock converts "HH:MM" into minutes since midnight. Extra segments
// ("HH:MM:SS") are ignored; anything non-numeric is rejected.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// IsWithinWindow reports whether now falls inside [start, end], both ends
// inclusive. A window whose start is after its end spans midnight. A missing
// bound means the window is always open; a malformed one means it never is.
func IsWithinWindow(now time.Time, start, end string) bool {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return true
	}
	startMin, ok := ParseClock(start)
	if !ok {
		return false
	}
	endMin, ok := ParseClock(end)
	if !ok {
		return false
	}

	cur := minuteOfDay(now)
	if startMin <= endMin {
		return cur >= startMin && cur <= endMin
	}
	return cur >= startMin || cur <= endMin
}

// UntilNext returns how long until the clock next reads hhmm, in now's
// location. A time equal to now counts as tomorrow.
func UntilNext(now time.Time, hhmm string) (time.Duration, bool) {
	mins, ok := ParseClock(hhmm)
	if !ok {
		return 0, false
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), mins/60, mins%60, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now), true
}

// FormatCountdown renders d as HH:MM:SS.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}
