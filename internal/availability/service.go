package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tablewise/internal/restaurants"
	"tablewise/internal/shared/apperrors"

	"github.com/google/uuid"
)

// RestaurantDirectory resolves restaurant snapshots for the engine.
type RestaurantDirectory interface {
	Resolve(ctx context.Context, id uuid.UUID) (restaurants.Restaurant, error)
	ListApproved(ctx context.Context, filter restaurants.ListFilter) ([]restaurants.Restaurant, error)
}

// Rules are the date and lead-time constraints shared by availability and booking.
type Rules struct {
	MinLeadTime    time.Duration
	HorizonDays    int
	AllowPastDates bool
}

const maxAlternatives = 3

type Service interface {
	GetAvailableSlots(ctx context.Context, restaurantID uuid.UUID, date string, partySize int) ([]TimeSlot, error)
	AvailableCapacity(ctx context.Context, key SlotKey) (int, error)
	IsBookable(ctx context.Context, key SlotKey, partySize int) (bool, error)
	ValidateSlot(ctx context.Context, restaurant restaurants.Restaurant, date, clock string) (time.Time, error)
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)
}

type service struct {
	directory RestaurantDirectory
	ledger    Ledger
	rules     Rules
	now       func() time.Time
}

// NewService wires the availability engine. now defaults to time.Now.
func NewService(directory RestaurantDirectory, ledger Ledger, rules Rules, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		directory: directory,
		ledger:    ledger,
		rules:     rules,
		now:       now,
	}
}

func (s *service) GetAvailableSlots(ctx context.Context, restaurantID uuid.UUID, date string, partySize int) ([]TimeSlot, error) {
	if partySize < 1 {
		return nil, apperrors.Invalid("party size must be at least 1")
	}

	restaurant, err := s.bookable(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	day, err := s.checkDate(restaurant, date)
	if err != nil {
		return nil, err
	}

	window, open, err := restaurant.Hours.WindowFor(day)
	if err != nil {
		return nil, err
	}
	if !open {
		return []TimeSlot{}, nil
	}

	return s.slotsFor(ctx, restaurant, window, partySize)
}

func (s *service) AvailableCapacity(ctx context.Context, key SlotKey) (int, error) {
	restaurant, err := s.directory.Resolve(ctx, key.RestaurantID)
	if err != nil {
		return 0, err
	}
	consumed, err := s.ledger.Consumed(ctx, key.RestaurantID, key.Date)
	if err != nil {
		return 0, err
	}
	return remaining(restaurant.Capacity, consumed[key.Time]), nil
}

func (s *service) IsBookable(ctx context.Context, key SlotKey, partySize int) (bool, error) {
	available, err := s.AvailableCapacity(ctx, key)
	if err != nil {
		return false, err
	}
	return available >= partySize, nil
}

// ValidateSlot checks a requested start against the booking horizon, the opening hours,
// the slot grid and the minimum lead time. It returns the absolute slot start.
func (s *service) ValidateSlot(ctx context.Context, restaurant restaurants.Restaurant, date, clock string) (time.Time, error) {
	day, err := s.checkDate(restaurant, date)
	if err != nil {
		return time.Time{}, err
	}
	if _, err := restaurants.ParseClock(clock); err != nil {
		return time.Time{}, err
	}

	window, open, err := restaurant.Hours.WindowFor(day)
	if err != nil {
		return time.Time{}, err
	}
	if !open {
		return time.Time{}, &apperrors.ClosedError{Date: date}
	}

	start, err := window.Locate(clock)
	if err != nil {
		return time.Time{}, err
	}
	if !window.Contains(start) {
		return time.Time{}, &apperrors.ClosedError{Date: date, Time: clock}
	}
	if restaurant.Hours.CarriedOver(day, start) {
		return time.Time{}, apperrors.Invalid("time %s on %s is served by the previous day's opening", clock, date)
	}
	if !window.Aligned(start, restaurant.Granularity()) {
		return time.Time{}, apperrors.Invalid("time %s is not on the %s slot grid starting at %s",
			clock, restaurant.Granularity(), ClockOf(window.Start))
	}
	if !s.rules.AllowPastDates && start.Before(s.now().Add(s.rules.MinLeadTime)) {
		return time.Time{}, &apperrors.DateError{
			Date:   date,
			Reason: fmt.Sprintf("slot %s must start at least %s from now", clock, s.rules.MinLeadTime),
		}
	}
	return start, nil
}

func (s *service) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	if query.PartySize < 1 {
		return nil, apperrors.Invalid("party size must be at least 1")
	}

	candidates, err := s.directory.ListApproved(ctx, restaurants.ListFilter{
		Cuisine: query.Cuisine,
		City:    query.City,
		Search:  query.Search,
		Page:    1,
		Limit:   query.limit(),
	})
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, restaurant := range candidates {
		day, err := s.checkDate(restaurant, query.Date)
		if err != nil {
			return nil, err
		}
		window, open, err := restaurant.Hours.WindowFor(day)
		if err != nil || !open {
			continue
		}
		slots, err := s.slotsFor(ctx, restaurant, window, query.PartySize)
		if err != nil {
			return nil, err
		}

		result, ok := matchSlots(restaurant, slots, query.Time)
		if ok {
			results = append(results, result)
		}
	}
	return results, nil
}

func (s *service) slotsFor(ctx context.Context, restaurant restaurants.Restaurant, window restaurants.Window, partySize int) ([]TimeSlot, error) {
	var now time.Time
	if !s.rules.AllowPastDates {
		now = s.now()
	}
	starts := GenerateSlots(window, restaurant.Granularity(), now, s.rules.MinLeadTime)

	consumed, err := s.ledger.Consumed(ctx, restaurant.ID, window.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to read capacity: %w", err)
	}

	y, mo, d := window.Start.Date()
	day := time.Date(y, mo, d, 0, 0, 0, 0, window.Start.Location())

	slots := make([]TimeSlot, 0, len(starts))
	seen := make(map[string]bool, len(starts))
	for _, start := range starts {
		clock := ClockOf(start)
		if seen[clock] || restaurant.Hours.CarriedOver(day, start) {
			continue
		}
		seen[clock] = true
		left := remaining(restaurant.Capacity, consumed[clock])
		slots = append(slots, TimeSlot{
			Date:              window.Date,
			Time:              clock,
			RemainingCapacity: left,
			IsAvailable:       left >= partySize,
		})
	}
	return slots, nil
}

// checkDate parses the business date in the restaurant's zone and applies the past-date
// and horizon rules.
func (s *service) checkDate(restaurant restaurants.Restaurant, date string) (time.Time, error) {
	loc := restaurant.Location()
	day, err := restaurants.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}

	now := s.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if day.Before(today) && !s.rules.AllowPastDates {
		return time.Time{}, &apperrors.DateError{Date: date, Reason: "date is in the past"}
	}
	if s.rules.HorizonDays > 0 && day.After(today.AddDate(0, 0, s.rules.HorizonDays)) {
		return time.Time{}, &apperrors.DateError{
			Date:   date,
			Reason: fmt.Sprintf("bookings open at most %d days ahead", s.rules.HorizonDays),
		}
	}
	return day, nil
}

func (s *service) bookable(ctx context.Context, id uuid.UUID) (restaurants.Restaurant, error) {
	restaurant, err := s.directory.Resolve(ctx, id)
	if err != nil {
		return restaurants.Restaurant{}, err
	}
	if !restaurant.IsApproved {
		return restaurants.Restaurant{}, apperrors.NotFound("restaurant")
	}
	return restaurant, nil
}

// matchSlots picks the requested time, or the nearest available alternatives when it is
// full or not requested.
func matchSlots(restaurant restaurants.Restaurant, slots []TimeSlot, clock string) (SearchResult, bool) {
	result := SearchResult{
		RestaurantID: restaurant.ID.String(),
		Name:         restaurant.Name,
		Cuisine:      restaurant.Cuisine,
		City:         restaurant.Address.City,
		PriceRange:   restaurant.PriceRange,
		Rating:       restaurant.Rating,
	}

	var available []TimeSlot
	for _, slot := range slots {
		if slot.IsAvailable {
			available = append(available, slot)
		}
	}
	if len(available) == 0 {
		return result, false
	}

	if clock == "" {
		result.Alternatives = available
		if len(available) > maxAlternatives {
			result.Alternatives = available[:maxAlternatives]
		}
		return result, true
	}

	target, err := restaurants.ParseClock(clock)
	if err != nil {
		return result, false
	}
	for i := range available {
		if available[i].Time == clock {
			result.Slot = &available[i]
			return result, true
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		return clockDistance(available[i].Time, target) < clockDistance(available[j].Time, target)
	})
	if len(available) > maxAlternatives {
		available = available[:maxAlternatives]
	}
	sort.SliceStable(available, func(i, j int) bool { return slotOrder(slots, available[i]) < slotOrder(slots, available[j]) })
	result.Alternatives = available
	return result, true
}

func clockDistance(clock string, target int) int {
	m, err := restaurants.ParseClock(clock)
	if err != nil {
		return 1 << 30
	}
	d := m - target
	if d < 0 {
		d = -d
	}
	if wrap := 24*60 - d; wrap < d {
		d = wrap
	}
	return d
}

func slotOrder(slots []TimeSlot, slot TimeSlot) int {
	for i := range slots {
		if slots[i].Time == slot.Time {
			return i
		}
	}
	return len(slots)
}
