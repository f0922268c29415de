package restaurants

import (
	"testing"
	"time"
	_ "time/tzdata"

	"tablewise/internal/shared/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestWindowForRegularDay(t *testing.T) {
	hours := WeeklyHours{"friday": {Open: "17:00", Close: "22:00"}}
	friday := mustDate(t, "2025-06-06")

	w, ok, err := hours.WindowFor(friday)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-06-06", w.Date)
	assert.Equal(t, time.Date(2025, 6, 6, 17, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 6, 6, 22, 0, 0, 0, time.UTC), w.End)

	_, ok, err = hours.WindowFor(mustDate(t, "2025-06-07"))
	require.NoError(t, err)
	assert.False(t, ok, "saturday has no entry")
}

func TestWindowBoundaries(t *testing.T) {
	hours := WeeklyHours{"friday": {Open: "17:00", Close: "22:00"}}
	w, _, err := hours.WindowFor(mustDate(t, "2025-06-06"))
	require.NoError(t, err)

	cases := map[string]bool{"16:30": false, "17:00": true, "21:30": true, "22:00": false}
	for clock, want := range cases {
		at, err := w.Locate(clock)
		require.NoError(t, err)
		assert.Equal(t, want, w.Contains(at), clock)
	}
}

func TestWindowCrossingMidnight(t *testing.T) {
	hours := WeeklyHours{"saturday": {Open: "18:00", Close: "02:00"}}
	w, ok, err := hours.WindowFor(mustDate(t, "2025-06-07"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 8, 2, 0, 0, 0, time.UTC), w.End)

	late, err := w.Locate("01:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 8, 1, 30, 0, 0, time.UTC), late)
	assert.True(t, w.Contains(late))

	closed, err := w.Locate("02:00")
	require.NoError(t, err)
	assert.False(t, w.Contains(closed))

	afternoon, err := w.Locate("15:00")
	require.NoError(t, err)
	assert.False(t, w.Contains(afternoon))
}

func TestWindowAroundTheClock(t *testing.T) {
	hours := WeeklyHours{"monday": {Open: "06:00", Close: "06:00"}}
	w, ok, err := hours.WindowFor(mustDate(t, "2025-06-02"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, w.End.Sub(w.Start))

	early, err := w.Locate("05:30")
	require.NoError(t, err)
	assert.True(t, w.Contains(early))
}

func TestAligned(t *testing.T) {
	hours := WeeklyHours{"friday": {Open: "17:15", Close: "22:00"}}
	w, _, err := hours.WindowFor(mustDate(t, "2025-06-06"))
	require.NoError(t, err)

	on, _ := w.Locate("17:45")
	off, _ := w.Locate("18:00")
	assert.True(t, w.Aligned(on, 30*time.Minute))
	assert.False(t, w.Aligned(off, 30*time.Minute))
	assert.False(t, w.Aligned(on, 0))
}

func TestValidateAndNormalize(t *testing.T) {
	hours := WeeklyHours{"Friday": {Open: "17:00", Close: "22:00"}}.Normalize()
	_, ok := hours["friday"]
	assert.True(t, ok)
	assert.NoError(t, hours.Validate())

	err := WeeklyHours{"funday": {Open: "17:00", Close: "22:00"}}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	err = WeeklyHours{"monday": {Open: "5pm", Close: "22:00"}}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestValidateRejectsOverlapWithPreviousDay(t *testing.T) {
	err := WeeklyHours{
		"friday":   {Open: "18:00", Close: "02:00"},
		"saturday": {Open: "00:00", Close: "23:00"},
	}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	assert.NoError(t, WeeklyHours{
		"friday":   {Open: "18:00", Close: "02:00"},
		"saturday": {Open: "02:00", Close: "23:00"},
	}.Validate())

	// Saturday's window reaches into Sunday.
	err = WeeklyHours{
		"saturday": {Open: "20:00", Close: "03:00"},
		"sunday":   {Open: "01:00", Close: "10:00"},
	}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	err = WeeklyHours{
		"monday":  {Open: "06:00", Close: "06:00"},
		"tuesday": {Open: "05:00", Close: "12:00"},
	}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	assert.NoError(t, WeeklyHours{
		"monday":  {Open: "18:00", Close: "00:00"},
		"tuesday": {Open: "00:00", Close: "12:00"},
	}.Validate())
}

func TestCarriedOver(t *testing.T) {
	hours := WeeklyHours{
		"friday":   {Open: "18:00", Close: "02:00"},
		"saturday": {Open: "00:00", Close: "23:00"},
	}
	saturday := mustDate(t, "2025-06-07")
	assert.True(t, hours.CarriedOver(saturday, time.Date(2025, 6, 7, 1, 30, 0, 0, time.UTC)))
	assert.False(t, hours.CarriedOver(saturday, time.Date(2025, 6, 7, 2, 0, 0, 0, time.UTC)))
	assert.False(t, hours.CarriedOver(mustDate(t, "2025-06-06"), time.Date(2025, 6, 7, 1, 0, 0, 0, time.UTC)))
}

func TestLocateRejectsSkippedClock(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	day, err := ParseDate("2025-03-09", ny)
	require.NoError(t, err)

	w, ok, err := WeeklyHours{"sunday": {Open: "01:00", Close: "04:00"}}.WindowFor(day)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = w.Locate("02:00")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	_, err = w.Locate("02:30")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	early, err := w.Locate("01:00")
	require.NoError(t, err)
	late, err := w.Locate("03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, late.Sub(early))
}

func TestParseDateAndClock(t *testing.T) {
	_, err := ParseDate("06/01/2025", time.UTC)
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)

	m, err := ParseClock("19:30")
	require.NoError(t, err)
	assert.Equal(t, 19*60+30, m)
	assert.Equal(t, "19:30", FormatClock(m))
	assert.Equal(t, "00:30", FormatClock(24*60+30))
}
