package cancellation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"tablewise/internal/bookings"
	"tablewise/internal/notifications"
	"tablewise/internal/restaurants"
	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/identity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBookings stands in for the booking service and counts released seats.
type fakeBookings struct {
	mu         sync.Mutex
	items      map[uuid.UUID]*bookings.Booking
	directory  *fakeDirectory
	released   int
	now        func() time.Time
	auditCalls int
}

func (f *fakeBookings) Load(_ context.Context, id uuid.UUID) (*bookings.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return nil, apperrors.NotFound("booking")
	}
	if b.Status.IsActive() && !b.SlotStart.After(f.now()) {
		b.Status = bookings.StatusCompleted
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) CanManage(ctx context.Context, requester identity.Requester, b *bookings.Booking) (bool, error) {
	if requester.IsAdmin() {
		return true, nil
	}
	if !requester.IsManager() {
		return false, nil
	}
	r, err := f.directory.Resolve(ctx, b.RestaurantID)
	if err != nil {
		return false, err
	}
	return r.ManagedBy(requester.UserID), nil
}

func (f *fakeBookings) ReleaseBooking(ctx context.Context, id uuid.UUID, audit bookings.AuditFunc) (*bookings.Booking, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return nil, false, apperrors.NotFound("booking")
	}
	if b.IsCancelled() {
		cp := *b
		return &cp, false, nil
	}

	now := f.now()
	next := *b
	next.Status = bookings.StatusCancelled
	next.CancelledAt = &now
	if audit != nil {
		f.auditCalls++
		if err := audit(ctx, &next); err != nil {
			return nil, false, err
		}
	}
	*b = next
	f.released += b.PartySize
	cp := next
	return &cp, true, nil
}

type memoryRepo struct {
	mu        sync.Mutex
	items     []Cancellation
	createErr error
}

func (r *memoryRepo) Create(_ context.Context, c *Cancellation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.items {
		if existing.BookingID == c.BookingID {
			return apperrors.ErrAlreadyExists
		}
	}
	r.items = append(r.items, *c)
	return nil
}

func (r *memoryRepo) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*Cancellation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.BookingID == bookingID {
			cp := c
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("cancellation")
}

func (r *memoryRepo) ListByUser(_ context.Context, userID uuid.UUID, page, limit int) ([]Cancellation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Cancellation
	for _, c := range r.items {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
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

type recordingPublisher struct {
	mu   sync.Mutex
	sent []*notifications.BookingNotification
}

func (p *recordingPublisher) Dispatch(_ context.Context, n *notifications.BookingNotification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
}

var may20 = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc        Service
	bookings   *fakeBookings
	repo       *memoryRepo
	publisher  *recordingPublisher
	restaurant restaurants.Restaurant
	manager    identity.Requester
	owner      identity.Requester
}

func newHarness(t *testing.T, cutoff time.Duration) *harness {
	t.Helper()
	manager := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}
	restaurant := restaurants.Restaurant{
		ID:         uuid.New(),
		Name:       "Le Petit Bistro",
		Capacity:   10,
		IsApproved: true,
		ManagerID:  manager.UserID,
	}
	directory := &fakeDirectory{items: map[uuid.UUID]restaurants.Restaurant{restaurant.ID: restaurant}}
	clock := func() time.Time { return may20 }
	fb := &fakeBookings{items: map[uuid.UUID]*bookings.Booking{}, directory: directory, now: clock}
	repo := &memoryRepo{}
	publisher := &recordingPublisher{}
	policy := bookings.Policy{CancellationCutoff: cutoff, Clock: clock}

	return &harness{
		svc:        NewService(repo, fb, directory, policy, publisher),
		bookings:   fb,
		repo:       repo,
		publisher:  publisher,
		restaurant: restaurant,
		manager:    manager,
		owner:      identity.Requester{UserID: uuid.New(), Role: identity.RoleCustomer},
	}
}

// book seeds a confirmed booking for the owner starting `in` from now.
func (h *harness) book(in time.Duration, party int) *bookings.Booking {
	start := may20.Add(in)
	b := &bookings.Booking{
		ID:           uuid.New(),
		RestaurantID: h.restaurant.ID,
		UserID:       h.owner.UserID,
		Date:         start.Format("2006-01-02"),
		Time:         start.Format("15:04"),
		SlotStart:    start,
		PartySize:    party,
		Status:       bookings.StatusConfirmed,
		BookingRef:   "TBL-TEST",
	}
	h.bookings.items[b.ID] = b
	return b
}

func TestOwnerCancelReleasesSeatsOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	b := h.book(48*time.Hour, 4)

	result, err := h.svc.Cancel(ctx, b.ID, h.owner, "plans changed")
	require.NoError(t, err)
	assert.False(t, result.AlreadyCancelled)
	assert.Equal(t, 4, h.bookings.released)
	assert.Equal(t, bookings.StatusCancelled, result.Booking.Status)
	assert.Equal(t, "Le Petit Bistro", result.Booking.RestaurantName)
	assert.Equal(t, h.owner.UserID, result.Cancellation.CancelledBy)
	assert.Equal(t, identity.RoleCustomer, result.Cancellation.Role)
	assert.Equal(t, 4, result.Cancellation.PartySize)

	require.Len(t, h.publisher.sent, 1)
	assert.Equal(t, notifications.NotificationTypeBookingCancelled, h.publisher.sent[0].Type)
	assert.Equal(t, "plans changed", h.publisher.sent[0].Reason)

	again, err := h.svc.Cancel(ctx, b.ID, h.owner, "")
	require.NoError(t, err)
	assert.True(t, again.AlreadyCancelled)
	assert.Equal(t, result.Cancellation.ID, again.Cancellation.ID)
	assert.Equal(t, 4, h.bookings.released)
	assert.Equal(t, 1, h.bookings.auditCalls)
	assert.Len(t, h.publisher.sent, 1)
}

func TestCancelAuthorization(t *testing.T) {
	ctx := context.Background()
	otherManager := identity.Requester{UserID: uuid.New(), Role: identity.RoleManager}
	stranger := identity.Requester{UserID: uuid.New(), Role: identity.RoleCustomer}
	admin := identity.Requester{UserID: uuid.New(), Role: identity.RoleAdmin}

	h := newHarness(t, 0)
	for _, who := range []identity.Requester{stranger, otherManager} {
		b := h.book(48*time.Hour, 2)
		_, err := h.svc.Cancel(ctx, b.ID, who, "")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	}
	assert.Zero(t, h.bookings.released)

	for _, who := range []identity.Requester{h.manager, admin} {
		b := h.book(48*time.Hour, 2)
		result, err := h.svc.Cancel(ctx, b.ID, who, "kitchen closed")
		require.NoError(t, err)
		assert.Equal(t, who.Role, result.Cancellation.Role)
	}
	assert.Equal(t, 4, h.bookings.released)

	_, err := h.svc.Cancel(ctx, uuid.New(), admin, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCutoffAppliesToCustomersOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2*time.Hour)

	soon := h.book(90*time.Minute, 2)
	_, err := h.svc.Cancel(ctx, soon.ID, h.owner, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Zero(t, h.bookings.released)

	_, err = h.svc.Cancel(ctx, soon.ID, h.manager, "")
	require.NoError(t, err)

	later := h.book(3*time.Hour, 2)
	_, err = h.svc.Cancel(ctx, later.ID, h.owner, "")
	require.NoError(t, err)
	assert.Equal(t, 4, h.bookings.released)
}

func TestStartedReservationCannotBeCancelled(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	admin := identity.Requester{UserID: uuid.New(), Role: identity.RoleAdmin}

	started := h.book(-30*time.Minute, 2)
	_, err := h.svc.Cancel(ctx, started.ID, admin, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, bookings.StatusCompleted, h.bookings.items[started.ID].Status)
	assert.Zero(t, h.bookings.released)
	assert.Empty(t, h.publisher.sent)
}

func TestFailedAuditKeepsBookingActive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	h.repo.createErr = errors.New("insert failed")
	b := h.book(48*time.Hour, 3)

	_, err := h.svc.Cancel(ctx, b.ID, h.owner, "")
	require.Error(t, err)
	assert.Equal(t, bookings.StatusConfirmed, h.bookings.items[b.ID].Status)
	assert.Zero(t, h.bookings.released)
	assert.Empty(t, h.publisher.sent)
}

func TestAlreadyCancelledWithoutAuditRow(t *testing.T) {
	h := newHarness(t, 0)
	b := h.book(48*time.Hour, 2)
	b.Status = bookings.StatusCancelled

	result, err := h.svc.Cancel(context.Background(), b.ID, h.owner, "")
	require.NoError(t, err)
	assert.True(t, result.AlreadyCancelled)
	assert.Equal(t, b.ID, result.Cancellation.BookingID)
	assert.Zero(t, h.bookings.released)
}

func TestGetByBookingAndListByUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	first := h.book(24*time.Hour, 2)
	second := h.book(48*time.Hour, 3)
	h.book(72*time.Hour, 1)

	_, err := h.svc.Cancel(ctx, first.ID, h.owner, "")
	require.NoError(t, err)
	_, err = h.svc.Cancel(ctx, second.ID, h.manager, "")
	require.NoError(t, err)

	record, err := h.svc.GetByBooking(ctx, h.owner, second.ID)
	require.NoError(t, err)
	assert.Equal(t, h.manager.UserID, record.CancelledBy)

	stranger := identity.Requester{UserID: uuid.New(), Role: identity.RoleCustomer}
	_, err = h.svc.GetByBooking(ctx, stranger, second.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	page, err := h.svc.ListByUser(ctx, h.owner, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 1, page.TotalPages)

	empty, err := h.svc.ListByUser(ctx, stranger, ListQuery{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, empty.Cancellations)
	assert.Zero(t, empty.TotalCount)
}
