package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"tablewise/internal/restaurants"
	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/constants"
	"tablewise/internal/shared/identity"
	"tablewise/pkg/cache"

	"github.com/google/uuid"
)

const (
	defaultPeriodDays = 30
	maxPeriodDays     = 365
	topRestaurants    = 5
)

// RestaurantDirectory resolves restaurants and the ones a manager runs.
type RestaurantDirectory interface {
	Resolve(ctx context.Context, id uuid.UUID) (restaurants.Restaurant, error)
	ManagedIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
}

// Service defines the analytics service interface
type Service interface {
	GetAdminSummary(ctx context.Context, days int) (*Summary, error)
	GetManagerSummary(ctx context.Context, requester identity.Requester, days int) (*Summary, error)
	GetRestaurantSummary(ctx context.Context, requester identity.Requester, restaurantID uuid.UUID, days int) (*Summary, error)
	GetPersonalSummary(ctx context.Context, requester identity.Requester, days int) (*Summary, error)
}

type service struct {
	repo      Repository
	directory RestaurantDirectory
	cache     cache.Service
	now       func() time.Time
}

// NewService creates a new analytics service instance. A nil cache disables caching.
func NewService(repo Repository, directory RestaurantDirectory, cacheService cache.Service, clock func() time.Time) Service {
	if cacheService == nil {
		cacheService = cache.Noop{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: repo, directory: directory, cache: cacheService, now: clock}
}

func (s *service) GetAdminSummary(ctx context.Context, days int) (*Summary, error) {
	days = normalizeDays(days)
	return s.cached(ctx, constants.BuildAdminAnalyticsKey(days), constants.TTL_ANALYTICS_DASHBOARD, days, Scope{})
}

func (s *service) GetManagerSummary(ctx context.Context, requester identity.Requester, days int) (*Summary, error) {
	days = normalizeDays(days)
	ids, err := s.directory.ManagedIDs(ctx, requester.UserID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	key := constants.BuildManagerAnalyticsKey(requester.UserID.String(), days)
	return s.cached(ctx, key, constants.TTL_ANALYTICS_DASHBOARD, days, Scope{RestaurantIDs: ids})
}

func (s *service) GetRestaurantSummary(ctx context.Context, requester identity.Requester, restaurantID uuid.UUID, days int) (*Summary, error) {
	days = normalizeDays(days)
	restaurant, err := s.directory.Resolve(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && !restaurant.ManagedBy(requester.UserID) {
		return nil, apperrors.ErrUnauthorized
	}
	key := constants.BuildRestaurantAnalyticsKey(restaurantID.String(), days)
	return s.cached(ctx, key, constants.TTL_ANALYTICS_DASHBOARD, days, Scope{RestaurantIDs: []uuid.UUID{restaurantID}})
}

func (s *service) GetPersonalSummary(ctx context.Context, requester identity.Requester, days int) (*Summary, error) {
	if requester.UserID == uuid.Nil {
		return nil, apperrors.ErrUnauthorized
	}
	days = normalizeDays(days)
	userID := requester.UserID
	key := constants.BuildPersonalAnalyticsKey(userID.String(), days)
	return s.cached(ctx, key, constants.TTL_ANALYTICS_PERSONAL, days, Scope{UserID: &userID})
}

func (s *service) cached(ctx context.Context, key string, ttl time.Duration, days int, scope Scope) (*Summary, error) {
	var summary Summary
	err := s.cache.GetOrSet(ctx, key, ttl, func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx, days, scope)
	}, &summary)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking summary: %w", err)
	}
	return &summary, nil
}

func (s *service) compute(ctx context.Context, days int, scope Scope) (*Summary, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(days - 1))
	scope.Since = from

	summary := &Summary{
		PeriodDays:           days,
		From:                 from.Format("2006-01-02"),
		To:                   today.Format("2006-01-02"),
		BookingsByRestaurant: []RestaurantCount{},
		TopRestaurants:       []RestaurantCount{},
	}

	// A manager without restaurants has nothing to aggregate.
	if scope.RestaurantIDs != nil && len(scope.RestaurantIDs) == 0 {
		summary.BookingsByDay = fillDays(from, today, nil)
		return summary, nil
	}

	counts, err := s.repo.StatusCounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	daily, err := s.repo.DailyCounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	perRestaurant, err := s.repo.RestaurantCounts(ctx, scope)
	if err != nil {
		return nil, err
	}

	seats := 0
	for _, row := range counts {
		summary.TotalBookings += row.Count
		seats += row.Seats
		switch row.Status {
		case "PENDING":
			summary.PendingBookings += row.Count
		case "CONFIRMED":
			summary.ConfirmedBookings += row.Count
		case "COMPLETED":
			summary.CompletedBookings += row.Count
		case "CANCELLED":
			summary.CancelledBookings += row.Count
		}
	}
	if summary.TotalBookings > 0 {
		summary.AveragePartySize = round1(float64(seats) / float64(summary.TotalBookings))
		summary.CancellationRate = round1(float64(summary.CancelledBookings) / float64(summary.TotalBookings) * 100)
	}

	summary.BookingsByDay = fillDays(from, today, daily)
	if perRestaurant != nil {
		summary.BookingsByRestaurant = perRestaurant
	}
	top := perRestaurant
	if len(top) > topRestaurants {
		top = top[:topRestaurants]
	}
	summary.TopRestaurants = append(summary.TopRestaurants, top...)
	return summary, nil
}

// fillDays returns one entry per day from..to, zero where no bookings were made.
func fillDays(from, to time.Time, daily []DayCount) []DayCount {
	byDate := make(map[string]int, len(daily))
	for _, d := range daily {
		byDate[d.Date] = d.Count
	}
	var out []DayCount
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		out = append(out, DayCount{Date: date, Count: byDate[date]})
	}
	return out
}

func normalizeDays(days int) int {
	if days <= 0 {
		return defaultPeriodDays
	}
	if days > maxPeriodDays {
		return maxPeriodDays
	}
	return days
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
