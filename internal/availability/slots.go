package availability

import (
	"time"

	"tablewise/internal/restaurants"
	"tablewise/internal/shared/validation"
)

// TimeSlot is a derived view of one bookable start time.
type TimeSlot struct {
	Date              string `json:"date"`
	Time              string `json:"time"`
	RemainingCapacity int    `json:"remaining_capacity"`
	IsAvailable       bool   `json:"is_available"`
}

// GenerateSlots lists slot starts inside the window, granularity apart, starting at opening time.
// Starts earlier than now+minLead are dropped. A zero now keeps every slot.
func GenerateSlots(window restaurants.Window, granularity time.Duration, now time.Time, minLead time.Duration) []time.Time {
	if granularity <= 0 || !window.Start.Before(window.End) {
		return nil
	}

	var earliest time.Time
	if !now.IsZero() {
		earliest = now.Add(minLead)
	}

	slots := make([]time.Time, 0, int(window.End.Sub(window.Start)/granularity)+1)
	for t := window.Start; t.Before(window.End); t = t.Add(granularity) {
		if !earliest.IsZero() && t.Before(earliest) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}

// ClockOf formats an absolute slot start as the HH:MM used in slot keys.
func ClockOf(t time.Time) string {
	return t.Format(validation.ClockLayout)
}
