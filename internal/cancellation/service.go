package cancellation

import (
	"context"
	"errors"
	"fmt"

	"tablewise/internal/bookings"
	"tablewise/internal/notifications"
	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/identity"
	"tablewise/pkg/logger"

	"github.com/google/uuid"
)

// BookingManager is the part of the booking service a cancellation needs.
type BookingManager interface {
	Load(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
	CanManage(ctx context.Context, requester identity.Requester, booking *bookings.Booking) (bool, error)
	ReleaseBooking(ctx context.Context, id uuid.UUID, audit bookings.AuditFunc) (*bookings.Booking, bool, error)
}

type Service interface {
	Cancel(ctx context.Context, bookingID uuid.UUID, requester identity.Requester, reason string) (*CancellationResponse, error)
	GetByBooking(ctx context.Context, requester identity.Requester, bookingID uuid.UUID) (*Cancellation, error)
	ListByUser(ctx context.Context, requester identity.Requester, query ListQuery) (*PaginatedCancellations, error)
}

type service struct {
	repo      Repository
	bookings  BookingManager
	directory bookings.RestaurantDirectory
	policy    bookings.Policy
	publisher bookings.Publisher
	log       *logger.Logger
}

func NewService(repo Repository, manager BookingManager, directory bookings.RestaurantDirectory, policy bookings.Policy, publisher bookings.Publisher) Service {
	return &service{
		repo:      repo,
		bookings:  manager,
		directory: directory,
		policy:    policy,
		publisher: publisher,
		log:       logger.GetDefault(),
	}
}

// Cancel releases a booking's seats and records who cancelled it. Cancelling an already
// cancelled booking returns the existing record and releases nothing.
func (s *service) Cancel(ctx context.Context, bookingID uuid.UUID, requester identity.Requester, reason string) (*CancellationResponse, error) {
	booking, err := s.bookings.Load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	manages, err := s.bookings.CanManage(ctx, requester, booking)
	if err != nil {
		return nil, err
	}
	if !manages && booking.UserID != requester.UserID {
		return nil, apperrors.ErrUnauthorized
	}

	if booking.IsCancelled() {
		return s.existing(ctx, booking)
	}

	now := s.policy.Now()
	if booking.Status == bookings.StatusCompleted || !booking.SlotStart.After(now) {
		return nil, fmt.Errorf("%w: the reservation has already started", apperrors.ErrInvalidTransition)
	}
	if !manages && s.policy.CancellationCutoff > 0 && booking.SlotStart.Sub(now) < s.policy.CancellationCutoff {
		return nil, fmt.Errorf("%w: cancellations close %s before the reservation", apperrors.ErrInvalidTransition, s.policy.CancellationCutoff)
	}

	var record *Cancellation
	released, ok, err := s.bookings.ReleaseBooking(ctx, bookingID, func(txCtx context.Context, b *bookings.Booking) error {
		record = &Cancellation{
			ID:           uuid.New(),
			BookingID:    b.ID,
			RestaurantID: b.RestaurantID,
			UserID:       b.UserID,
			CancelledBy:  requester.UserID,
			Role:         requester.Role,
			Reason:       reason,
			PartySize:    b.PartySize,
			CreatedAt:    now,
		}
		return s.repo.Create(txCtx, record)
	})
	if err != nil {
		s.log.ErrorWithContext(ctx, "Failed to cancel booking", err, map[string]interface{}{
			"booking_id": bookingID.String(),
		})
		return nil, err
	}
	if !ok {
		return s.existing(ctx, released)
	}

	s.log.LogBookingCancelled(ctx, released.ID.String(), released.RestaurantID.String(), requester.UserID.String())

	name := s.restaurantName(ctx, released.RestaurantID)
	if s.publisher != nil {
		s.publisher.Dispatch(ctx, bookings.NewNotification(notifications.NotificationTypeBookingCancelled, released, name, reason))
	}

	resp := released.ToResponse()
	resp.RestaurantName = name
	return &CancellationResponse{Cancellation: *record, Booking: &resp}, nil
}

// existing builds the response for a booking that was cancelled before this call.
func (s *service) existing(ctx context.Context, booking *bookings.Booking) (*CancellationResponse, error) {
	record, err := s.repo.GetByBookingID(ctx, booking.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		record = &Cancellation{
			BookingID:    booking.ID,
			RestaurantID: booking.RestaurantID,
			UserID:       booking.UserID,
			PartySize:    booking.PartySize,
		}
		if booking.CancelledAt != nil {
			record.CreatedAt = *booking.CancelledAt
		}
	} else if err != nil {
		return nil, err
	}

	resp := booking.ToResponse()
	resp.RestaurantName = s.restaurantName(ctx, booking.RestaurantID)
	return &CancellationResponse{Cancellation: *record, Booking: &resp, AlreadyCancelled: true}, nil
}

func (s *service) GetByBooking(ctx context.Context, requester identity.Requester, bookingID uuid.UUID) (*Cancellation, error) {
	booking, err := s.bookings.Load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	manages, err := s.bookings.CanManage(ctx, requester, booking)
	if err != nil {
		return nil, err
	}
	if !manages && booking.UserID != requester.UserID {
		return nil, apperrors.ErrUnauthorized
	}
	return s.repo.GetByBookingID(ctx, bookingID)
}

func (s *service) ListByUser(ctx context.Context, requester identity.Requester, query ListQuery) (*PaginatedCancellations, error) {
	query.normalize()
	items, total, err := s.repo.ListByUser(ctx, requester.UserID, query.Page, query.Limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Cancellation{}
	}
	return &PaginatedCancellations{
		Cancellations: items,
		TotalCount:    total,
		Page:          query.Page,
		Limit:         query.Limit,
		TotalPages:    bookings.CalculateTotalPages(total, query.Limit),
	}, nil
}

func (s *service) restaurantName(ctx context.Context, id uuid.UUID) string {
	if s.directory == nil {
		return ""
	}
	restaurant, err := s.directory.Resolve(ctx, id)
	if err != nil {
		return ""
	}
	return restaurant.Name
}
