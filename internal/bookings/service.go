package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"tablewise/internal/availability"
	"tablewise/internal/notifications"
	"tablewise/internal/restaurants"
	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/identity"
	"tablewise/pkg/logger"

	"github.com/google/uuid"
)

// RestaurantDirectory resolves restaurant snapshots and manager ownership.
type RestaurantDirectory interface {
	Resolve(ctx context.Context, id uuid.UUID) (restaurants.Restaurant, error)
	ManagedIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
}

// Publisher sends booking notifications without blocking the caller.
type Publisher interface {
	Dispatch(ctx context.Context, n *notifications.BookingNotification)
}

// AuditFunc runs inside the release commit, after the status change.
type AuditFunc func(ctx context.Context, booking *Booking) error

type Service interface {
	CreateBooking(ctx context.Context, requester identity.Requester, req CreateBookingRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, requester identity.Requester, id uuid.UUID) (*BookingResponse, error)
	ListUserBookings(ctx context.Context, requester identity.Requester, query ListQuery) (*PaginatedBookings, error)
	ListRestaurantBookings(ctx context.Context, requester identity.Requester, restaurantID uuid.UUID, query ListQuery) (*PaginatedBookings, error)
	ListAllBookings(ctx context.Context, query ListQuery) (*PaginatedBookings, error)
	ConfirmBooking(ctx context.Context, requester identity.Requester, id uuid.UUID) (*BookingResponse, error)

	// Engine-facing operations
	Load(ctx context.Context, id uuid.UUID) (*Booking, error)
	CanManage(ctx context.Context, requester identity.Requester, booking *Booking) (bool, error)
	ReleaseBooking(ctx context.Context, id uuid.UUID, audit AuditFunc) (*Booking, bool, error)
	HasCompletedBooking(ctx context.Context, userID, restaurantID uuid.UUID) (bool, error)
	CompleteDue(ctx context.Context) (int64, error)
	Reconcile(ctx context.Context, restaurantID uuid.UUID, date string) (*ReconcileReport, error)
	ReconcileUpcoming(ctx context.Context, days int) (*ReconcileReport, error)
}

var errAlreadyReleased = errors.New("booking already left the active state")

type service struct {
	repo         Repository
	directory    RestaurantDirectory
	availability availability.Service
	ledger       availability.Ledger
	policy       Policy
	publisher    Publisher
	log          *logger.Logger
}

func NewService(repo Repository, directory RestaurantDirectory, avail availability.Service, ledger availability.Ledger, policy Policy, publisher Publisher) Service {
	return &service{
		repo:         repo,
		directory:    directory,
		availability: avail,
		ledger:       ledger,
		policy:       policy.withDefaults(),
		publisher:    publisher,
		log:          logger.GetDefault(),
	}
}

func (s *service) CreateBooking(ctx context.Context, requester identity.Requester, req CreateBookingRequest) (*BookingResponse, error) {
	if requester.UserID == uuid.Nil {
		return nil, apperrors.ErrUnauthorized
	}
	if req.PartySize < 1 || req.PartySize > s.policy.MaxPartySize {
		return nil, apperrors.Invalid("party size must be between 1 and %d", s.policy.MaxPartySize)
	}

	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		return nil, apperrors.Invalid("restaurant_id must be a UUID")
	}
	restaurant, err := s.directory.Resolve(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.IsApproved {
		return nil, apperrors.NotFound("restaurant")
	}

	start, err := s.availability.ValidateSlot(ctx, restaurant, req.Date, req.Time)
	if err != nil {
		s.log.LogBookingRejected(ctx, restaurantID.String(), req.Date+"T"+req.Time, req.PartySize, err)
		return nil, err
	}

	ref, err := generateBookingReference(req.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	now := s.policy.Now()
	booking := &Booking{
		ID:              uuid.New(),
		RestaurantID:    restaurantID,
		UserID:          requester.UserID,
		Date:            req.Date,
		Time:            availability.ClockOf(start),
		SlotStart:       start.UTC(),
		PartySize:       req.PartySize,
		Status:          StatusPending,
		SpecialRequests: req.SpecialRequests,
		BookingRef:      ref,
	}
	if s.policy.AutoConfirm {
		booking.Status = StatusConfirmed
		booking.ConfirmedAt = &now
	}

	if err := s.reserve(ctx, booking, restaurant.Capacity); err != nil {
		s.log.LogBookingRejected(ctx, restaurantID.String(), booking.Key().String(), req.PartySize, err)
		return nil, err
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), restaurantID.String(), requester.UserID.String(), booking.PartySize, string(booking.Status))

	notType := notifications.NotificationTypeBookingRequested
	if booking.Status == StatusConfirmed {
		notType = notifications.NotificationTypeBookingConfirmed
	}
	s.publish(ctx, notType, booking, restaurant.Name, "")

	resp := booking.ToResponse()
	resp.RestaurantName = restaurant.Name
	return &resp, nil
}

// reserve runs the ledger reservation with the insert as its commit. A lock conflict is
// retried once; a second conflict is reported as a full slot.
func (s *service) reserve(ctx context.Context, booking *Booking, capacity int) error {
	attempt := func() error {
		commitCtx, cancel := context.WithTimeout(ctx, s.policy.CommitTimeout)
		defer cancel()
		_, err := s.ledger.Reserve(commitCtx, booking.Key(), booking.PartySize, capacity, func(txCtx context.Context) error {
			return s.repo.Create(txCtx, booking)
		})
		return err
	}

	err := attempt()
	if !errors.Is(err, apperrors.ErrConcurrencyConflict) {
		return err
	}
	err = attempt()
	if !errors.Is(err, apperrors.ErrConcurrencyConflict) {
		return err
	}

	available, lookupErr := s.availability.AvailableCapacity(ctx, booking.Key())
	if lookupErr != nil {
		available = 0
	}
	return &apperrors.CapacityError{Slot: booking.Key().String(), Available: available, Requested: booking.PartySize}
}

func (s *service) GetBooking(ctx context.Context, requester identity.Requester, id uuid.UUID) (*BookingResponse, error) {
	booking, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.CanManage(ctx, requester, booking)
	if err != nil {
		return nil, err
	}
	if !allowed && booking.UserID != requester.UserID {
		return nil, apperrors.ErrUnauthorized
	}

	resp := booking.ToResponse()
	if restaurant, err := s.directory.Resolve(ctx, booking.RestaurantID); err == nil {
		resp.RestaurantName = restaurant.Name
	}
	return &resp, nil
}

// Load returns the booking, completing it first when its slot has already started.
func (s *service) Load(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.policy.Now()
	if booking.Status.IsActive() && !booking.SlotStart.After(now) {
		changed, err := s.repo.TransitionStatus(ctx, id, activeStatuses, StatusCompleted, now)
		if err != nil {
			return nil, err
		}
		if changed {
			booking.Status = StatusCompleted
			booking.CompletedAt = &now
		} else if booking, err = s.repo.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return booking, nil
}

func (s *service) ListUserBookings(ctx context.Context, requester identity.Requester, query ListQuery) (*PaginatedBookings, error) {
	filter := query.filter()
	filter.UserID = &requester.UserID
	return s.page(ctx, filter)
}

func (s *service) ListRestaurantBookings(ctx context.Context, requester identity.Requester, restaurantID uuid.UUID, query ListQuery) (*PaginatedBookings, error) {
	restaurant, err := s.directory.Resolve(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && !restaurant.ManagedBy(requester.UserID) {
		return nil, apperrors.ErrUnauthorized
	}

	filter := query.filter()
	filter.RestaurantIDs = []uuid.UUID{restaurantID}
	return s.page(ctx, filter)
}

func (s *service) ListAllBookings(ctx context.Context, query ListQuery) (*PaginatedBookings, error) {
	return s.page(ctx, query.filter())
}

// ConfirmBooking moves a pending booking to confirmed. Confirming twice is a no-op.
func (s *service) ConfirmBooking(ctx context.Context, requester identity.Requester, id uuid.UUID) (*BookingResponse, error) {
	booking, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed, err := s.CanManage(ctx, requester, booking)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.ErrUnauthorized
	}

	switch booking.Status {
	case StatusConfirmed:
		resp := booking.ToResponse()
		return &resp, nil
	case StatusPending:
	default:
		return nil, fmt.Errorf("%w: cannot confirm a %s booking", apperrors.ErrInvalidTransition, booking.Status)
	}

	now := s.policy.Now()
	changed, err := s.repo.TransitionStatus(ctx, id, []Status{StatusPending}, StatusConfirmed, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: booking changed concurrently", apperrors.ErrInvalidTransition)
	}
	booking.Status = StatusConfirmed
	booking.ConfirmedAt = &now

	var name string
	if restaurant, err := s.directory.Resolve(ctx, booking.RestaurantID); err == nil {
		name = restaurant.Name
	}
	s.publish(ctx, notifications.NotificationTypeBookingConfirmed, booking, name, "")

	resp := booking.ToResponse()
	resp.RestaurantName = name
	return &resp, nil
}

// CanManage reports whether requester is an admin or manages the booking's restaurant.
func (s *service) CanManage(ctx context.Context, requester identity.Requester, booking *Booking) (bool, error) {
	if requester.IsAdmin() {
		return true, nil
	}
	if !requester.IsManager() {
		return false, nil
	}
	restaurant, err := s.directory.Resolve(ctx, booking.RestaurantID)
	if err != nil {
		return false, err
	}
	return restaurant.ManagedBy(requester.UserID), nil
}

// ReleaseBooking cancels an active booking and gives its seats back. The status change,
// audit and ledger decrement take effect together. An already cancelled booking is
// returned with released=false.
func (s *service) ReleaseBooking(ctx context.Context, id uuid.UUID, audit AuditFunc) (*Booking, bool, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if booking.IsCancelled() {
		return booking, false, nil
	}
	if !booking.Status.CanTransitionTo(StatusCancelled) {
		return nil, false, fmt.Errorf("%w: cannot cancel a %s booking", apperrors.ErrInvalidTransition, booking.Status)
	}

	now := s.policy.Now()
	release := func() error {
		_, err := s.ledger.Release(ctx, booking.Key(), booking.PartySize, func(txCtx context.Context) error {
			return s.repo.Atomically(txCtx, func(txCtx context.Context) error {
				changed, err := s.repo.TransitionStatus(txCtx, id, activeStatuses, StatusCancelled, now)
				if err != nil {
					return err
				}
				if !changed {
					return errAlreadyReleased
				}
				booking.Status = StatusCancelled
				booking.CancelledAt = &now
				if audit != nil {
					return audit(txCtx, booking)
				}
				return nil
			})
		})
		return err
	}

	err = release()
	if errors.Is(err, apperrors.ErrConcurrencyConflict) {
		err = release()
	}
	if errors.Is(err, errAlreadyReleased) {
		current, getErr := s.repo.GetByID(ctx, id)
		if getErr != nil {
			return nil, false, getErr
		}
		if current.IsCancelled() {
			return current, false, nil
		}
		return nil, false, fmt.Errorf("%w: booking is %s", apperrors.ErrInvalidTransition, current.Status)
	}
	if err != nil {
		return nil, false, err
	}
	return booking, true, nil
}

func (s *service) HasCompletedBooking(ctx context.Context, userID, restaurantID uuid.UUID) (bool, error) {
	return s.repo.HasCompletedBooking(ctx, userID, restaurantID)
}

// CompleteDue completes every active booking whose slot has started, batch by batch.
func (s *service) CompleteDue(ctx context.Context) (int64, error) {
	var total int64
	now := s.policy.Now()
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.repo.CompleteDue(ctx, now, s.policy.CompletionBatch)
		if err != nil {
			return total, err
		}
		total += n
		if n < int64(s.policy.CompletionBatch) {
			break
		}
	}
	if total > 0 {
		s.log.LogBookingsCompleted(ctx, total)
	}
	return total, nil
}

// Reconcile rebuilds every ledger entry of a restaurant's business date that disagrees
// with the bookings table.
func (s *service) Reconcile(ctx context.Context, restaurantID uuid.UUID, date string) (*ReconcileReport, error) {
	ledgered, err := s.ledger.Consumed(ctx, restaurantID, date)
	if err != nil {
		return nil, err
	}
	actual, err := s.repo.ConsumedByDate(ctx, restaurantID, date)
	if err != nil {
		return nil, err
	}

	times := make([]string, 0, len(ledgered)+len(actual))
	seen := make(map[string]bool, cap(times))
	for _, m := range []map[string]int{ledgered, actual} {
		for clock := range m {
			if !seen[clock] {
				seen[clock] = true
				times = append(times, clock)
			}
		}
	}
	sort.Strings(times)

	report := &ReconcileReport{Drifts: []SlotDrift{}}
	for _, clock := range times {
		report.Checked++
		if ledgered[clock] == actual[clock] {
			continue
		}
		key := availability.SlotKey{RestaurantID: restaurantID, Date: date, Time: clock}
		before, after, err := s.ledger.Rebuild(ctx, key)
		if err != nil {
			return report, err
		}
		if before != after {
			report.Repaired++
			report.Drifts = append(report.Drifts, SlotDrift{Slot: key.String(), Ledger: before, Actual: after})
			s.log.LogLedgerDrift(ctx, key.String(), before, after)
		}
	}
	return report, nil
}

// ReconcileUpcoming reconciles every restaurant date with active bookings from yesterday
// through the next `days` days.
func (s *service) ReconcileUpcoming(ctx context.Context, days int) (*ReconcileReport, error) {
	if days < 1 {
		days = 1
	}
	now := s.policy.Now().UTC()
	from := now.AddDate(0, 0, -1).Format("2006-01-02")
	to := now.AddDate(0, 0, days).Format("2006-01-02")

	keys, err := s.repo.ActiveDates(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Drifts: []SlotDrift{}}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		part, err := s.Reconcile(ctx, key.RestaurantID, key.Date)
		if part != nil {
			report.merge(part)
		}
		if err != nil {
			return report, err
		}
	}

	if pruner, ok := s.ledger.(availability.Pruner); ok {
		report.Pruned = pruner.Prune(from)
	}
	return report, nil
}

func (s *service) page(ctx context.Context, filter ListFilter) (*PaginatedBookings, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]BookingResponse, 0, len(items))
	for i := range items {
		out = append(out, items[i].ToResponse())
	}
	return &PaginatedBookings{
		Bookings:   out,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: CalculateTotalPages(total, filter.Limit),
	}, nil
}

func (s *service) publish(ctx context.Context, notType notifications.NotificationType, b *Booking, restaurantName, reason string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Dispatch(ctx, NewNotification(notType, b, restaurantName, reason))
}

// NewNotification builds the guest notification for a booking event.
func NewNotification(notType notifications.NotificationType, b *Booking, restaurantName, reason string) *notifications.BookingNotification {
	return notifications.NewNotificationBuilder(notType).
		WithRecipient(b.UserID, "", "").
		WithBooking(b.ID, b.BookingRef, string(b.Status)).
		WithRestaurant(b.RestaurantID, restaurantName).
		WithSlot(b.Date, b.Time, b.PartySize).
		WithReason(reason).
		Build()
}

// generateBookingReference returns TBL-<date>-<6 random letters>.
func generateBookingReference(date string) (string, error) {
	stamp := date
	if len(stamp) == len("2006-01-02") {
		stamp = stamp[0:4] + stamp[5:7] + stamp[8:10]
	}

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("TBL-%s-%s", stamp, string(randomPart)), nil
}
