package cancellation

import (
	"context"
	"errors"
	"fmt"

	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface defines the contract for cancellation data operations
type Repository interface {
	Create(ctx context.Context, cancellation *Cancellation) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*Cancellation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]Cancellation, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new cancellation repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create writes the audit row, inside the release transaction when ctx carries one.
func (r *repository) Create(ctx context.Context, cancellation *Cancellation) error {
	err := database.Conn(ctx, r.db).Create(cancellation).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create cancellation: %w", err)
	}
	return nil
}

func (r *repository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*Cancellation, error) {
	var cancellation Cancellation
	err := database.Conn(ctx, r.db).First(&cancellation, "booking_id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("cancellation")
		}
		return nil, fmt.Errorf("failed to get cancellation: %w", err)
	}
	return &cancellation, nil
}

// ListByUser returns the cancellations of bookings owned by userID, newest first.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]Cancellation, int64, error) {
	var (
		items []Cancellation
		total int64
	)
	query := database.Conn(ctx, r.db).Model(&Cancellation{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cancellations: %w", err)
	}
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cancellations: %w", err)
	}
	return items, total, nil
}
