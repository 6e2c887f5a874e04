package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeSlot is a candidate weekly period. Start and End are minutes from
// midnight so interval checks stay integer comparisons.
type TimeSlot struct {
	Day   int `json:"day"` // 1 = Monday ... 7 = Sunday
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the slot has a real day and a positive duration.
func (s TimeSlot) Valid() bool {
	return s.Day >= 1 && s.Day <= 7 && s.End > s.Start
}

// Overlaps reports half-open interval overlap on the same day. Touching
// endpoints (10:00-11:00 followed by 11:00-12:00) do not overlap.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.Day == o.Day && s.Start < o.End && o.Start < s.End
}

// String renders the slot as "day 1 08:00-09:00" for failure reasons and logs.
func (s TimeSlot) String() string {
	return fmt.Sprintf("day %d %s-%s", s.Day, FormatClock(s.Start), FormatClock(s.End))
}

// ParseClock converts "HH:MM" into minutes from midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour*60 + minute, nil
}

// FormatClock converts minutes from midnight back into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

const (
	defaultWorkdayStart = 8 * 60
	defaultWorkdayEnd   = 22 * 60
	defaultSlotMinutes  = 60

	minSlotMinutes = 40
	maxSlotMinutes = 90
)

// CatalogConfig describes the built-in candidate period catalogue used when
// the caller supplies no allowed slots.
type CatalogConfig struct {
	WorkdayStart int // minutes from midnight
	WorkdayEnd   int
	SlotMinutes  int
}

// DefaultCatalog enumerates weekday periods spanning the working-day window
// in the configured grain. Out-of-range configuration falls back to the
// documented defaults (08:00-22:00, 60 minute periods). The order is
// deterministic: day ascending, then start ascending.
func DefaultCatalog(cfg CatalogConfig) []TimeSlot {
	start := cfg.WorkdayStart
	end := cfg.WorkdayEnd
	grain := cfg.SlotMinutes
	if start <= 0 || end <= start {
		start = defaultWorkdayStart
		end = defaultWorkdayEnd
	}
	if grain < minSlotMinutes || grain > maxSlotMinutes {
		grain = defaultSlotMinutes
	}

	var slots []TimeSlot
	for day := 1; day <= 5; day++ {
		for at := start; at+grain <= end; at += grain {
			slots = append(slots, TimeSlot{Day: day, Start: at, End: at + grain})
		}
	}
	return slots
}
