package restaurants

import (
	"fmt"
	"strings"
	"time"

	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/validation"
)

const minutesPerDay = 24 * 60

var weekdayKeys = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayHours is the opening window of one weekday, in local HH:MM.
// Close before Open runs past midnight. Close equal to Open means open around the clock.
type DayHours struct {
	Open  string `json:"open" binding:"required,clock"`
	Close string `json:"close" binding:"required,clock"`
}

// WeeklyHours maps a lowercase weekday name to its hours. A missing day is closed.
type WeeklyHours map[string]DayHours

// Window is the bookable interval of a business date: [Start, End).
type Window struct {
	Date  string    `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window. Open is inclusive, close exclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Locate maps a local HH:MM on the window's business date to an absolute time.
// Times earlier than the opening belong to the early hours of the following day.
// A clock skipped by a daylight-saving change does not exist and is rejected.
func (w Window) Locate(clock string) (time.Time, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := w.Start.Date()
	t := time.Date(y, mo, d, m/60, m%60, 0, 0, w.Start.Location())
	if t.Before(w.Start) {
		t = time.Date(y, mo, d+1, m/60, m%60, 0, 0, w.Start.Location())
	}
	if t.Hour()*60+t.Minute() != m {
		return time.Time{}, apperrors.Invalid("time %s does not exist on %s in %s", clock, t.Format(validation.DateLayout), t.Location())
	}
	return t, nil
}

// Aligned reports whether t sits on the slot grid that starts at opening time.
func (w Window) Aligned(t time.Time, granularity time.Duration) bool {
	if granularity <= 0 {
		return false
	}
	return t.Sub(w.Start)%granularity == 0
}

// ParseClock converts HH:MM into minutes after midnight.
func ParseClock(s string) (int, error) {
	if !validation.IsClock(s) {
		return 0, apperrors.Invalid("time %q must be HH:MM", s)
	}
	t, _ := time.Parse(validation.ClockLayout, s)
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes after midnight into HH:MM.
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a YYYY-MM-DD business date at local midnight.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(validation.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, &apperrors.DateError{Date: s, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

// Normalize lowercases weekday keys.
func (h WeeklyHours) Normalize() WeeklyHours {
	out := make(WeeklyHours, len(h))
	for day, dh := range h {
		out[strings.ToLower(strings.TrimSpace(day))] = dh
	}
	return out
}

// Validate checks weekday names and clock formats, and that no day opens before the
// previous day's late window has closed.
func (h WeeklyHours) Validate() error {
	for day, dh := range h {
		if !validation.IsWeekday(day) {
			return apperrors.Invalid("unknown weekday %q", day)
		}
		if _, err := ParseClock(dh.Open); err != nil {
			return fmt.Errorf("%s open: %w", day, err)
		}
		if _, err := ParseClock(dh.Close); err != nil {
			return fmt.Errorf("%s close: %w", day, err)
		}
	}

	for i, day := range weekdayKeys {
		dh, ok := h[day]
		if !ok {
			continue
		}
		prevDay := weekdayKeys[(i+len(weekdayKeys)-1)%len(weekdayKeys)]
		prev, ok := h[prevDay]
		if !ok {
			continue
		}
		carry := carryOver(prev)
		open, _ := ParseClock(dh.Open)
		if open < carry {
			return apperrors.Invalid("%s opens at %s before %s hours end at %s", day, dh.Open, prevDay, prev.Close)
		}
	}
	return nil
}

// carryOver returns how many minutes past midnight a day's window reaches into the next day.
func carryOver(dh DayHours) int {
	open, err := ParseClock(dh.Open)
	if err != nil {
		return 0
	}
	closing, err := ParseClock(dh.Close)
	if err != nil || closing > open {
		return 0
	}
	return closing
}

// For returns the hours of a weekday.
func (h WeeklyHours) For(day time.Weekday) (DayHours, bool) {
	dh, ok := h[weekdayKeys[day]]
	return dh, ok
}

// WindowFor resolves the opening window of a business date. date must be local midnight.
// ok is false when the restaurant is closed that weekday.
func (h WeeklyHours) WindowFor(date time.Time) (w Window, ok bool, err error) {
	dh, found := h.For(date.Weekday())
	if !found {
		return Window{}, false, nil
	}
	open, err := ParseClock(dh.Open)
	if err != nil {
		return Window{}, false, err
	}
	closing, err := ParseClock(dh.Close)
	if err != nil {
		return Window{}, false, err
	}

	y, mo, d := date.Date()
	loc := date.Location()
	start := time.Date(y, mo, d, open/60, open%60, 0, 0, loc)
	end := time.Date(y, mo, d, closing/60, closing%60, 0, 0, loc)
	if closing <= open {
		end = time.Date(y, mo, d+1, closing/60, closing%60, 0, 0, loc)
	}

	return Window{Date: date.Format(validation.DateLayout), Start: start, End: end}, true, nil
}

// CarriedOver reports whether t falls inside the window of the business date before date.
// Such a start belongs to the earlier date.
func (h WeeklyHours) CarriedOver(date, t time.Time) bool {
	y, mo, d := date.Date()
	prev, ok, err := h.WindowFor(time.Date(y, mo, d-1, 0, 0, 0, 0, date.Location()))
	if err != nil || !ok {
		return false
	}
	return prev.Contains(t)
}
