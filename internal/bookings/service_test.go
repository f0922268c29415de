package bookings

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"tablewise/internal/availability"
	"tablewise/internal/notifications"
	"tablewise/internal/restaurants"
	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/identity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-process Repository for service tests.
type memoryRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*Booking
	createErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[uuid.UUID]*Booking{}}
}

func (r *memoryRepo) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.items {
		if existing.BookingRef == b.BookingRef {
			return apperrors.ErrAlreadyExists
		}
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	r.items[b.ID] = &cp
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, apperrors.NotFound("booking")
	}
	cp := *b
	return &cp, nil
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) ([]Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	filter.normalize()
	var out []Booking
	for _, b := range r.items {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if len(filter.RestaurantIDs) > 0 && b.RestaurantID != filter.RestaurantIDs[0] {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.Date != "" && b.Date != filter.Date {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotStart.After(out[j].SlotStart) })
	total := int64(len(out))
	start := filter.offset()
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *memoryRepo) TransitionStatus(_ context.Context, id uuid.UUID, from []Status, to Status, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if b.Status == s {
			r.apply(b, to, at)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) apply(b *Booking, to Status, at time.Time) {
	b.Status = to
	b.UpdatedAt = at
	switch to {
	case StatusConfirmed:
		b.ConfirmedAt = &at
	case StatusCancelled:
		b.CancelledAt = &at
	case StatusCompleted:
		b.CompletedAt = &at
	}
}

func (r *memoryRepo) CompleteDue(_ context.Context, before time.Time, limit int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.items {
		if n >= int64(limit) {
			break
		}
		if b.Status.IsActive() && b.SlotStart.Before(before) {
			r.apply(b, StatusCompleted, before)
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) SumActive(_ context.Context, key availability.SlotKey) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, b := range r.items {
		if b.Key() == key && b.Status.HoldsCapacity() {
			sum += b.PartySize
		}
	}
	return sum, nil
}

func (r *memoryRepo) ConsumedByDate(_ context.Context, restaurantID uuid.UUID, date string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int{}
	for _, b := range r.items {
		if b.RestaurantID == restaurantID && b.Date == date && b.Status.HoldsCapacity() {
			out[b.Time] += b.PartySize
		}
	}
	return out, nil
}

func (r *memoryRepo) ActiveDates(_ context.Context, fromDate, toDate string) ([]availability.SlotKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[availability.SlotKey]bool{}
	var out []availability.SlotKey
	for _, b := range r.items {
		if !b.Status.IsActive() || b.Date < fromDate || b.Date > toDate {
			continue
		}
		k := availability.SlotKey{RestaurantID: b.RestaurantID, Date: b.Date}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}

func (r *memoryRepo) HasCompletedBooking(_ context.Context, userID, restaurantID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		if b.UserID == userID && b.RestaurantID == restaurantID && b.Status == StatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// insertBehindLedger writes a booking without touching the ledger.
func (r *memoryRepo) insertBehindLedger(b Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = uuid.New()
	r.items[b.ID] = &b
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

func (d *fakeDirectory) ListApproved(_ context.Context, _ restaurants.ListFilter) ([]restaurants.Restaurant, error) {
	var out []restaurants.Restaurant
	for _, r := range d.items {
		if r.IsApproved {
			out = append(out, r)
		}
	}
	return out, nil
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

type recordingPublisher struct {
	mu   sync.Mutex
	sent []*notifications.BookingNotification
}

func (p *recordingPublisher) Dispatch(_ context.Context, n *notifications.BookingNotification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
}

func (p *recordingPublisher) types() []notifications.NotificationType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.NotificationType, len(p.sent))
	for i, n := range p.sent {
		out[i] = n.Type
	}
	return out
}

// flakyLedger reports a lock conflict on the first `conflicts` reservations.
type flakyLedger struct {
	availability.Ledger
	conflicts atomic.Int32
	calls     atomic.Int32
}

func (f *flakyLedger) Reserve(ctx context.Context, key availability.SlotKey, partySize, capacity int, commit availability.CommitFunc) (int, error) {
	f.calls.Add(1)
	if f.conflicts.Add(-1) >= 0 {
		return 0, apperrors.ErrConcurrencyConflict
	}
	return f.Ledger.Reserve(ctx, key, partySize, capacity, commit)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type harness struct {
	svc        Service
	repo       *memoryRepo
	ledger     availability.Ledger
	publisher  *recordingPublisher
	clock      *testClock
	directory  *fakeDirectory
	restaurant restaurants.Restaurant
	manager    identity.Requester
}

type harnessOption func(*Policy, *availability.Ledger)

func withPendingBookings() harnessOption {
	return func(p *Policy, _ *availability.Ledger) { p.AutoConfirm = false }
}

func withLedger(wrap func(availability.Ledger) availability.Ledger) harnessOption {
	return func(_ *Policy, l *availability.Ledger) { *l = wrap(*l) }
}

func newHarness(t *testing.T, capacity int, opts ...harnessOption) *harness {
	t.Helper()
	manager := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}
	restaurant := restaurants.Restaurant{
		ID:          uuid.New(),
		Name:        "Le Petit Bistro",
		Capacity:    capacity,
		SlotMinutes: 30,
		Timezone:    "UTC",
		IsApproved:  true,
		ManagerID:   manager.UserID,
		Hours: restaurants.WeeklyHours{
			"sunday": {Open: "18:00", Close: "21:00"},
			"friday": {Open: "17:00", Close: "22:00"},
		},
	}

	clock := &testClock{now: time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)}
	repo := newMemoryRepo()
	directory := &fakeDirectory{items: map[uuid.UUID]restaurants.Restaurant{restaurant.ID: restaurant}}
	var ledger availability.Ledger = availability.NewMemoryLedger(repo, time.Second)

	policy := Policy{
		AutoConfirm:   true,
		MinLeadTime:   time.Hour,
		HorizonDays:   90,
		MaxPartySize:  20,
		CommitTimeout: time.Second,
		Clock:         clock.Now,
	}
	for _, opt := range opts {
		opt(&policy, &ledger)
	}

	publisher := &recordingPublisher{}
	avail := availability.NewService(directory, ledger, policy.Rules(), clock.Now)
	return &harness{
		svc:        NewService(repo, directory, avail, ledger, policy, publisher),
		repo:       repo,
		ledger:     ledger,
		publisher:  publisher,
		clock:      clock,
		directory:  directory,
		restaurant: restaurant,
		manager:    manager,
	}
}

// setHours replaces the restaurant's zone and hours without going through validation.
func (h *harness) setHours(timezone string, hours restaurants.WeeklyHours) {
	h.restaurant.Timezone = timezone
	h.restaurant.Hours = hours
	h.directory.items[h.restaurant.ID] = h.restaurant
}

func customer() identity.Requester {
	return identity.Requester{UserID: uuid.New(), Role: identity.RoleCustomer}
}

func (h *harness) request(date, clock string, party int) CreateBookingRequest {
	return CreateBookingRequest{RestaurantID: h.restaurant.ID.String(), Date: date, Time: clock, PartySize: party}
}

func (h *harness) consumed(t *testing.T, date, clock string) int {
	t.Helper()
	consumed, err := h.ledger.Consumed(context.Background(), h.restaurant.ID, date)
	require.NoError(t, err)
	return consumed[clock]
}

func TestCreateBookingFillsSlotAndCancellationFreesIt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)

	a, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 4))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, a.Status)
	assert.Equal(t, "Le Petit Bistro", a.RestaurantName)
	assert.Regexp(t, `^TBL-20250601-[A-Z]{6}$`, a.BookingRef)

	_, err = h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 1))
	var capErr *apperrors.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 0, capErr.Available)

	released, ok, err := h.svc.ReleaseBooking(ctx, uuid.MustParse(a.ID), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StatusCancelled, released.Status)
	assert.Equal(t, 0, h.consumed(t, "2025-06-01", "19:00"))

	_, err = h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, h.consumed(t, "2025-06-01", "19:00"))
}

func TestCreateBookingHonoursOpeningHours(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 10)

	// 2025-06-06 is a Friday, open 17:00-22:00.
	_, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-06", "16:30", 2))
	assert.ErrorIs(t, err, apperrors.ErrRestaurantClosed)

	b, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-06", "17:00", 2))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 6, 17, 0, 0, 0, time.UTC), b.SlotStart)

	// Thursday is closed all day.
	_, err = h.svc.CreateBooking(ctx, customer(), h.request("2025-06-05", "19:00", 2))
	assert.ErrorIs(t, err, apperrors.ErrRestaurantClosed)
}

func TestOverlappingLateHoursShareOneSlot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)
	h.setHours("UTC", restaurants.WeeklyHours{
		"friday":   {Open: "18:00", Close: "02:00"},
		"saturday": {Open: "00:00", Close: "23:00"},
	})

	// Friday's late window and Saturday's early hours are the same instant.
	friday, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-06", "01:00", 4))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 7, 1, 0, 0, 0, time.UTC), friday.SlotStart)

	_, err = h.svc.CreateBooking(ctx, customer(), h.request("2025-06-07", "01:00", 4))
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	assert.Equal(t, 0, h.consumed(t, "2025-06-07", "01:00"))

	_, err = h.svc.CreateBooking(ctx, customer(), h.request("2025-06-07", "02:00", 4))
	require.NoError(t, err)
}

func TestDaylightSavingGapIsNotBookable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)
	h.setHours("America/New_York", restaurants.WeeklyHours{"sunday": {Open: "01:00", Close: "04:00"}})
	h.restaurant.SlotMinutes = 60
	h.directory.items[h.restaurant.ID] = h.restaurant
	h.clock.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	// Clocks jump from 02:00 to 03:00 on 2025-03-09.
	_, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-03-09", "02:00", 4))
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	early, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-03-09", "01:00", 4))
	require.NoError(t, err)
	assert.Equal(t, "01:00", early.Time)
	assert.Equal(t, time.Date(2025, 3, 9, 6, 0, 0, 0, time.UTC), early.SlotStart)

	late, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-03-09", "03:00", 4))
	require.NoError(t, err)
	assert.Equal(t, "03:00", late.Time)
	assert.Equal(t, time.Date(2025, 3, 9, 7, 0, 0, 0, time.UTC), late.SlotStart)

	_, err = h.svc.CreateBooking(ctx, customer(), h.request("2025-03-09", "01:00", 1))
	var capErr *apperrors.CapacityError
	assert.ErrorAs(t, err, &capErr)
}

func TestRejectedBookingsHaveNoSideEffects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)

	cases := []struct {
		name string
		req  CreateBookingRequest
		want error
	}{
		{"beyond horizon", h.request("2025-08-19", "19:00", 2), apperrors.ErrInvalidDate},
		{"past date", h.request("2025-05-18", "19:00", 2), apperrors.ErrInvalidDate},
		{"party too large", h.request("2025-06-01", "19:00", 21), apperrors.ErrInvalidRequest},
		{"party larger than room", h.request("2025-06-01", "19:00", 5), apperrors.ErrCapacityExceeded},
		{"unknown restaurant", CreateBookingRequest{RestaurantID: uuid.NewString(), Date: "2025-06-01", Time: "19:00", PartySize: 2}, apperrors.ErrNotFound},
		{"off grid", h.request("2025-06-01", "19:10", 2), apperrors.ErrInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.CreateBooking(ctx, customer(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Empty(t, h.repo.items)
	assert.Empty(t, h.publisher.types())
	assert.Equal(t, 0, h.consumed(t, "2025-06-01", "19:00"))
}

func TestCommitFailureLeavesCapacityUntouched(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)
	h.repo.createErr = errors.New("connection reset")

	_, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 2))
	require.Error(t, err)
	assert.Equal(t, 0, h.consumed(t, "2025-06-01", "19:00"))
	assert.Empty(t, h.publisher.types())
}

func TestPendingBookingIsConfirmedByManager(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4, withPendingBookings())
	guest := customer()

	b, err := h.svc.CreateBooking(ctx, guest, h.request("2025-06-01", "19:00", 2))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, 2, h.consumed(t, "2025-06-01", "19:00"), "pending bookings hold capacity")

	id := uuid.MustParse(b.ID)
	_, err = h.svc.ConfirmBooking(ctx, guest, id)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	otherManager := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}
	_, err = h.svc.ConfirmBooking(ctx, otherManager, id)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	confirmed, err := h.svc.ConfirmBooking(ctx, h.manager, id)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	again, err := h.svc.ConfirmBooking(ctx, h.manager, id)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, again.Status)

	assert.Equal(t, []notifications.NotificationType{
		notifications.NotificationTypeBookingRequested,
		notifications.NotificationTypeBookingConfirmed,
	}, h.publisher.types())
}

func TestReleaseBookingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)

	b, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 3))
	require.NoError(t, err)
	id := uuid.MustParse(b.ID)

	audits := 0
	audit := func(context.Context, *Booking) error { audits++; return nil }

	_, released, err := h.svc.ReleaseBooking(ctx, id, audit)
	require.NoError(t, err)
	assert.True(t, released)

	again, released, err := h.svc.ReleaseBooking(ctx, id, audit)
	require.NoError(t, err)
	assert.False(t, released)
	assert.Equal(t, StatusCancelled, again.Status)

	assert.Equal(t, 1, audits)
	assert.Equal(t, 0, h.consumed(t, "2025-06-01", "19:00"))
}

func TestReleaseRollsBackWhenAuditFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)

	b, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 3))
	require.NoError(t, err)

	boom := errors.New("audit insert failed")
	_, released, err := h.svc.ReleaseBooking(ctx, uuid.MustParse(b.ID), func(context.Context, *Booking) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, released)
	assert.Equal(t, 3, h.consumed(t, "2025-06-01", "19:00"))
}

func TestConcurrentLastSeat(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)

	_, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 3))
	require.NoError(t, err)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 1))
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
	}
	assert.Equal(t, 1, succeeded)

	actual, err := h.repo.SumActive(ctx, availability.SlotKey{RestaurantID: h.restaurant.ID, Date: "2025-06-01", Time: "19:00"})
	require.NoError(t, err)
	assert.Equal(t, 4, actual)
}

func TestConflictIsRetriedOnce(t *testing.T) {
	ctx := context.Background()

	var flaky *flakyLedger
	h := newHarness(t, 4, withLedger(func(l availability.Ledger) availability.Ledger {
		flaky = &flakyLedger{Ledger: l}
		flaky.conflicts.Store(1)
		return flaky
	}))

	_, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 2))
	require.NoError(t, err)
	assert.Equal(t, int32(2), flaky.calls.Load())

	flaky.calls.Store(0)
	flaky.conflicts.Store(2)
	_, err = h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 1))
	var capErr *apperrors.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Available)
	assert.Equal(t, int32(2), flaky.calls.Load())
	assert.Equal(t, 2, h.consumed(t, "2025-06-01", "19:00"))
}

func TestGetBookingAuthorizationAndLazyCompletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)
	guest := customer()

	b, err := h.svc.CreateBooking(ctx, guest, h.request("2025-06-01", "19:00", 2))
	require.NoError(t, err)
	id := uuid.MustParse(b.ID)

	_, err = h.svc.GetBooking(ctx, customer(), id)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	got, err := h.svc.GetBooking(ctx, h.manager, id)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	h.clock.Set(time.Date(2025, 6, 1, 19, 5, 0, 0, time.UTC))
	got, err = h.svc.GetBooking(ctx, guest, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 2, h.consumed(t, "2025-06-01", "19:00"), "completion keeps the seats")

	_, _, err = h.svc.ReleaseBooking(ctx, id, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = h.svc.GetBooking(ctx, guest, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCompleteDueSweepsStartedSlots(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 10)
	guest := customer()

	_, err := h.svc.CreateBooking(ctx, guest, h.request("2025-06-01", "18:00", 2))
	require.NoError(t, err)
	_, err = h.svc.CreateBooking(ctx, guest, h.request("2025-06-01", "20:00", 2))
	require.NoError(t, err)

	h.clock.Set(time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC))
	n, err := h.svc.CompleteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	done, err := h.svc.HasCompletedBooking(ctx, guest.UserID, h.restaurant.ID)
	require.NoError(t, err)
	assert.True(t, done)

	n, err = h.svc.CompleteDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconcileRepairsDrift(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 10)

	_, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 2))
	require.NoError(t, err)

	h.repo.insertBehindLedger(Booking{
		RestaurantID: h.restaurant.ID,
		UserID:       uuid.New(),
		Date:         "2025-06-01",
		Time:         "19:00",
		SlotStart:    time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC),
		PartySize:    3,
		Status:       StatusConfirmed,
		BookingRef:   "TBL-20250601-MANUAL",
	})

	report, err := h.svc.ReconcileUpcoming(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)
	require.Len(t, report.Drifts, 1)
	assert.Equal(t, 2, report.Drifts[0].Ledger)
	assert.Equal(t, 5, report.Drifts[0].Actual)
	assert.Equal(t, 5, h.consumed(t, "2025-06-01", "19:00"))

	report, err = h.svc.Reconcile(ctx, h.restaurant.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Zero(t, report.Repaired)
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 10)
	guest := customer()

	for _, clock := range []string{"18:00", "18:30", "19:00"} {
		_, err := h.svc.CreateBooking(ctx, guest, h.request("2025-06-01", clock, 2))
		require.NoError(t, err)
	}
	_, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "20:00", 2))
	require.NoError(t, err)

	mine, err := h.svc.ListUserBookings(ctx, guest, ListQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), mine.TotalCount)
	assert.Len(t, mine.Bookings, 2)
	assert.Equal(t, 2, mine.TotalPages)
	assert.Equal(t, "19:00", mine.Bookings[0].Time)

	all, err := h.svc.ListRestaurantBookings(ctx, h.manager, h.restaurant.ID, ListQuery{Date: "2025-06-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.TotalCount)

	_, err = h.svc.ListRestaurantBookings(ctx, guest, h.restaurant.ID, ListQuery{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestReconcilePrunesPastLedgerDates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 4)

	_, err := h.svc.CreateBooking(ctx, customer(), h.request("2025-06-01", "19:00", 2))
	require.NoError(t, err)

	h.clock.Set(time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC))
	report, err := h.svc.ReconcileUpcoming(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pruned)

	// Pruned dates are answered from the bookings themselves.
	assert.Equal(t, 2, h.consumed(t, "2025-06-01", "19:00"))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusCompleted.HoldsCapacity())
	assert.False(t, StatusCancelled.HoldsCapacity())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.Equal(t, []Status{StatusPending, StatusConfirmed, StatusCompleted}, capacityHoldingStatuses())
	assert.False(t, Status("SEATED").IsValid())
	assert.Equal(t, StatusConfirmed, ListQuery{Status: "confirmed"}.filter().Status)
	assert.Empty(t, ListQuery{Status: "SEATED"}.filter().Status)
}
