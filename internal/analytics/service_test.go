package analytics

import (
	"context"
	"testing"
	"time"

	"tablewise/internal/restaurants"
	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/identity"
	"tablewise/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	counts     []StatusCount
	daily      []DayCount
	restaurant []RestaurantCount
	calls      int
	scopes     []Scope
}

func (f *fakeRepo) StatusCounts(_ context.Context, scope Scope) ([]StatusCount, error) {
	f.calls++
	f.scopes = append(f.scopes, scope)
	return f.counts, nil
}

func (f *fakeRepo) DailyCounts(_ context.Context, _ Scope) ([]DayCount, error) {
	return f.daily, nil
}

func (f *fakeRepo) RestaurantCounts(_ context.Context, _ Scope) ([]RestaurantCount, error) {
	return f.restaurant, nil
}

type fakeDirectory struct {
	items map[uuid.UUID]restaurants.Restaurant
}

func (d *fakeDirectory) Resolve(_ context.Context, id uuid.UUID) (restaurants.Restaurant, error) {
	r, ok := d.items[id]
	if !ok {
		return restaurants.Restaurant{}, apperrors.NotFound("restaurant")
	}
	return r, nil
}

func (d *fakeDirectory) ManagedIDs(_ context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, r := range d.items {
		if r.ManagedBy(managerID) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

var june10 = time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

func sampleRepo() *fakeRepo {
	return &fakeRepo{
		counts: []StatusCount{
			{Status: "CONFIRMED", Count: 4, Seats: 10},
			{Status: "COMPLETED", Count: 3, Seats: 9},
			{Status: "CANCELLED", Count: 2, Seats: 4},
			{Status: "PENDING", Count: 1, Seats: 2},
		},
		daily: []DayCount{{Date: "2025-06-08", Count: 6}, {Date: "2025-06-10", Count: 4}},
		restaurant: []RestaurantCount{
			{Name: "A", Count: 3}, {Name: "B", Count: 2}, {Name: "C", Count: 2},
			{Name: "D", Count: 1}, {Name: "E", Count: 1}, {Name: "F", Count: 1},
		},
	}
}

func TestSummaryAggregates(t *testing.T) {
	svc := NewService(sampleRepo(), &fakeDirectory{}, nil, func() time.Time { return june10 })

	summary, err := svc.GetAdminSummary(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 10, summary.TotalBookings)
	assert.Equal(t, 4, summary.ConfirmedBookings)
	assert.Equal(t, 3, summary.CompletedBookings)
	assert.Equal(t, 2, summary.CancelledBookings)
	assert.Equal(t, 1, summary.PendingBookings)
	assert.Equal(t, 2.5, summary.AveragePartySize)
	assert.Equal(t, 20.0, summary.CancellationRate)

	assert.Equal(t, "2025-06-08", summary.From)
	assert.Equal(t, "2025-06-10", summary.To)
	assert.Equal(t, []DayCount{
		{Date: "2025-06-08", Count: 6},
		{Date: "2025-06-09", Count: 0},
		{Date: "2025-06-10", Count: 4},
	}, summary.BookingsByDay)

	assert.Len(t, summary.BookingsByRestaurant, 6)
	require.Len(t, summary.TopRestaurants, 5)
	assert.Equal(t, "A", summary.TopRestaurants[0].Name)
}

func TestSummaryIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := sampleRepo()
	svc := NewService(repo, &fakeDirectory{}, cache.NewService(client), func() time.Time { return june10 })
	ctx := context.Background()

	first, err := svc.GetAdminSummary(ctx, 0)
	require.NoError(t, err)
	second, err := svc.GetAdminSummary(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 30, second.PeriodDays)
	assert.True(t, mr.Exists("tablewise:analytics:admin:days:30"))
}

func TestScopes(t *testing.T) {
	ctx := context.Background()
	manager := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}
	owned := restaurants.Restaurant{ID: uuid.New(), Name: "Owned", ManagerID: manager.UserID}
	other := restaurants.Restaurant{ID: uuid.New(), Name: "Other", ManagerID: uuid.New()}
	directory := &fakeDirectory{items: map[uuid.UUID]restaurants.Restaurant{owned.ID: owned, other.ID: other}}

	repo := sampleRepo()
	svc := NewService(repo, directory, nil, func() time.Time { return june10 })

	_, err := svc.GetManagerSummary(ctx, manager, 7)
	require.NoError(t, err)
	require.Len(t, repo.scopes, 1)
	assert.Equal(t, []uuid.UUID{owned.ID}, repo.scopes[0].RestaurantIDs)
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), repo.scopes[0].Since)

	_, err = svc.GetRestaurantSummary(ctx, manager, other.ID, 7)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	guest := identity.Requester{UserID: uuid.New(), Role: identity.RoleCustomer}
	_, err = svc.GetPersonalSummary(ctx, guest, 7)
	require.NoError(t, err)
	require.Len(t, repo.scopes, 2)
	require.NotNil(t, repo.scopes[1].UserID)
	assert.Equal(t, guest.UserID, *repo.scopes[1].UserID)
	assert.Nil(t, repo.scopes[1].RestaurantIDs)
}

func TestManagerWithoutRestaurantsGetsEmptySummary(t *testing.T) {
	repo := sampleRepo()
	svc := NewService(repo, &fakeDirectory{}, nil, func() time.Time { return june10 })

	manager := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}
	summary, err := svc.GetManagerSummary(context.Background(), manager, 5)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalBookings)
	assert.Len(t, summary.BookingsByDay, 5)
	assert.Zero(t, repo.calls)
}
