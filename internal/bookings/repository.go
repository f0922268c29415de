package bookings

import (
	"context"
	"errors"
	"time"

	"tablewise/internal/availability"
	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Core booking operations
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]Booking, int64, error)

	// TransitionStatus moves the booking to `to` only if its status is still one of `from`.
	// It reports whether a row changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []Status, to Status, at time.Time) (bool, error)
	CompleteDue(ctx context.Context, before time.Time, limit int) (int64, error)

	// Capacity recount, used by the ledger
	SumActive(ctx context.Context, key availability.SlotKey) (int, error)
	ConsumedByDate(ctx context.Context, restaurantID uuid.UUID, date string) (map[string]int, error)
	ActiveDates(ctx context.Context, fromDate, toDate string) ([]availability.SlotKey, error)

	HasCompletedBooking(ctx context.Context, userID, restaurantID uuid.UUID) (bool, error)

	// Atomically runs fn in a transaction, joining one already carried by ctx.
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	err := database.Conn(ctx, r.db).Create(booking).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrAlreadyExists
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("booking")
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Booking, int64, error) {
	filter.normalize()

	var bookings []Booking
	var totalCount int64

	baseQuery := r.applyFilters(database.Conn(ctx, r.db).Model(&Booking{}), filter)

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := baseQuery.
		Order("slot_start DESC").
		Order("created_at DESC").
		Offset(filter.offset()).
		Limit(filter.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from []Status, to Status, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case StatusConfirmed:
		updates["confirmed_at"] = at
	case StatusCancelled:
		updates["cancelled_at"] = at
	case StatusCompleted:
		updates["completed_at"] = at
	}

	result := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CompleteDue completes at most limit active bookings whose slot started before `before`.
func (r *repository) CompleteDue(ctx context.Context, before time.Time, limit int) (int64, error) {
	conn := database.Conn(ctx, r.db)
	due := conn.Session(&gorm.Session{NewDB: true}).
		Model(&Booking{}).
		Select("id").
		Where("status IN ? AND slot_start < ?", activeStatuses, before).
		Order("slot_start").
		Limit(limit)

	result := conn.Model(&Booking{}).
		Where("id IN (?)", due).
		Where("status IN ?", activeStatuses).
		Updates(map[string]interface{}{
			"status":       StatusCompleted,
			"completed_at": before,
			"updated_at":   before,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) SumActive(ctx context.Context, key availability.SlotKey) (int, error) {
	var consumed int
	err := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Where("restaurant_id = ? AND date = ? AND time = ?", key.RestaurantID, key.Date, key.Time).
		Where("status IN ?", capacityHoldingStatuses()).
		Select("COALESCE(SUM(party_size), 0)").
		Scan(&consumed).Error
	return consumed, err
}

func (r *repository) ConsumedByDate(ctx context.Context, restaurantID uuid.UUID, date string) (map[string]int, error) {
	var rows []struct {
		Time     string
		Consumed int
	}
	err := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Select("time, COALESCE(SUM(party_size), 0) AS consumed").
		Where("restaurant_id = ? AND date = ?", restaurantID, date).
		Where("status IN ?", capacityHoldingStatuses()).
		Group("time").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Time] = row.Consumed
	}
	return out, nil
}

// ActiveDates lists the (restaurant, date) pairs holding active bookings in [fromDate, toDate].
// Time is left empty on the returned keys.
func (r *repository) ActiveDates(ctx context.Context, fromDate, toDate string) ([]availability.SlotKey, error) {
	var keys []availability.SlotKey
	err := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Distinct("restaurant_id", "date").
		Where("date BETWEEN ? AND ?", fromDate, toDate).
		Where("status IN ?", activeStatuses).
		Order("date").
		Scan(&keys).Error
	return keys, err
}

func (r *repository) HasCompletedBooking(ctx context.Context, userID, restaurantID uuid.UUID) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Where("user_id = ? AND restaurant_id = ? AND status = ?", userID, restaurantID, StatusCompleted).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.InTx(ctx, r.db, fn)
}

// applyFilters applies query filters to the GORM query
func (r *repository) applyFilters(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if len(filter.RestaurantIDs) > 0 {
		query = query.Where("restaurant_id IN ?", filter.RestaurantIDs)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	// Business dates are zero-padded, so string comparison orders them
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.DateFrom != "" {
		query = query.Where("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("date <= ?", filter.DateTo)
	}

	return query
}
