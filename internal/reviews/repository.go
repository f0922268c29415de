package reviews

import (
	"context"
	"errors"

	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, page, limit int) ([]Review, int64, error)
	Exists(ctx context.Context, restaurantID, userID uuid.UUID) (bool, error)
	Stats(ctx context.Context, restaurantID uuid.UUID) (RatingStats, error)

	// Atomically runs fn in a transaction, joining one already carried by ctx.
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, review *Review) error {
	err := database.Conn(ctx, r.db).Create(review).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrAlreadyExists
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	var review Review
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("review")
		}
		return nil, err
	}
	return &review, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&Review{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("review")
	}
	return nil
}

func (r *repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, page, limit int) ([]Review, int64, error) {
	var (
		items []Review
		total int64
	)
	query := database.Conn(ctx, r.db).Model(&Review{}).Where("restaurant_id = ?", restaurantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *repository) Exists(ctx context.Context, restaurantID, userID uuid.UUID) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&Review{}).
		Where("restaurant_id = ? AND user_id = ?", restaurantID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Stats(ctx context.Context, restaurantID uuid.UUID) (RatingStats, error) {
	var row struct {
		Average float64
		Count   int
	}
	err := database.Conn(ctx, r.db).Model(&Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("restaurant_id = ?", restaurantID).
		Scan(&row).Error
	return RatingStats{Average: row.Average, Count: row.Count}, err
}

func (r *repository) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.InTx(ctx, r.db, fn)
}
