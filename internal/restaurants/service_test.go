package restaurants

import (
	"context"
	"sync"
	"testing"

	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/identity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]Restaurant
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[uuid.UUID]Restaurant{}}
}

func (m *memoryRepo) Create(_ context.Context, r *Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.items[r.ID] = *r
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("restaurant")
	}
	return &r, nil
}

func (m *memoryRepo) Save(_ context.Context, r *Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[r.ID] = *r
	return nil
}

func (m *memoryRepo) SetApproval(_ context.Context, id uuid.UUID, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return apperrors.NotFound("restaurant")
	}
	r.IsApproved = approved
	m.items[id] = r
	return nil
}

func (m *memoryRepo) UpdateRatingStats(_ context.Context, id uuid.UUID, rating float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.items[id]
	r.Rating, r.ReviewCount = rating, count
	m.items[id] = r
	return nil
}

func (m *memoryRepo) List(_ context.Context, f ListFilter) ([]Restaurant, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Restaurant
	for _, r := range m.items {
		if f.OnlyApproved && !r.IsApproved {
			continue
		}
		if f.OnlyPending && r.IsApproved {
			continue
		}
		if f.ManagerID != nil && r.ManagerID != *f.ManagerID {
			continue
		}
		if f.Cuisine != "" && r.Cuisine != f.Cuisine {
			continue
		}
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func createRequest() CreateRestaurantRequest {
	return CreateRestaurantRequest{
		Name:       "Trattoria Roma",
		Cuisine:    "Italian",
		PriceRange: 2,
		Address:    AddressRequest{City: "Springfield"},
		Hours:      WeeklyHours{"Friday": {Open: "17:00", Close: "22:00"}},
		Capacity:   40,
	}
}

func TestCreateRestaurantByManagerAwaitsApproval(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	manager := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}

	resp, err := svc.CreateRestaurant(context.Background(), manager, createRequest())
	require.NoError(t, err)
	assert.False(t, resp.IsApproved)
	assert.Equal(t, manager.UserID.String(), resp.ManagerID)
	assert.Equal(t, DefaultSlotMinutes, resp.SlotMinutes)
	assert.Equal(t, "UTC", resp.Timezone)
	_, ok := resp.Hours["friday"]
	assert.True(t, ok, "weekday keys are normalized")

	id := uuid.MustParse(resp.ID)
	_, err = svc.GetRestaurant(context.Background(), nil, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "hidden from the public until approved")

	own, err := svc.GetRestaurant(context.Background(), &manager, id)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, own.ID)

	approved, err := svc.SetApproval(context.Background(), id, true)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	public, err := svc.GetRestaurant(context.Background(), nil, id)
	require.NoError(t, err)
	assert.True(t, public.IsApproved)
}

func TestCreateRestaurantRejectsCustomersAndBadHours(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateRestaurant(context.Background(), identity.Requester{UserID: uuid.New(), Role: identity.RoleCustomer}, createRequest())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	req := createRequest()
	req.Hours = WeeklyHours{"friday": {Open: "5pm", Close: "22:00"}}
	_, err = svc.CreateRestaurant(context.Background(), identity.Requester{UserID: uuid.New(), Role: identity.RoleAdmin}, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	req.Hours = WeeklyHours{
		"friday":   {Open: "18:00", Close: "02:00"},
		"saturday": {Open: "00:00", Close: "23:00"},
	}
	_, err = svc.CreateRestaurant(context.Background(), identity.Requester{UserID: uuid.New(), Role: identity.RoleAdmin}, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestUpdateRestaurantOnlyByOwnerOrAdmin(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	owner := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}
	resp, err := svc.CreateRestaurant(context.Background(), owner, createRequest())
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	capacity := 12
	other := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}
	_, err = svc.UpdateRestaurant(context.Background(), other, id, UpdateRestaurantRequest{Capacity: &capacity})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	updated, err := svc.UpdateRestaurant(context.Background(), owner, id, UpdateRestaurantRequest{Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Capacity)

	snapshot, err := svc.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 12, snapshot.Capacity)
}

func TestManagedIDsAndPending(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	manager := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}
	admin := identity.Requester{UserID: uuid.New(), Role: identity.RoleAdmin}

	_, err := svc.CreateRestaurant(context.Background(), manager, createRequest())
	require.NoError(t, err)
	_, err = svc.CreateRestaurant(context.Background(), admin, createRequest())
	require.NoError(t, err)

	ids, err := svc.ManagedIDs(context.Background(), manager.UserID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	pending, err := svc.ListPending(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, pending.Restaurants, 1)

	approved, err := svc.ListApproved(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}
