package restaurants

import (
	"context"
	"errors"
	"strings"

	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, restaurant *Restaurant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Restaurant, error)
	Save(ctx context.Context, restaurant *Restaurant) error
	SetApproval(ctx context.Context, id uuid.UUID, approved bool) error
	UpdateRatingStats(ctx context.Context, id uuid.UUID, rating float64, count int) error
	List(ctx context.Context, filter ListFilter) ([]Restaurant, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, restaurant *Restaurant) error {
	return database.Conn(ctx, r.db).Create(restaurant).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Restaurant, error) {
	var restaurant Restaurant
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&restaurant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("restaurant")
		}
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) Save(ctx context.Context, restaurant *Restaurant) error {
	return database.Conn(ctx, r.db).Save(restaurant).Error
}

func (r *repository) SetApproval(ctx context.Context, id uuid.UUID, approved bool) error {
	result := database.Conn(ctx, r.db).Model(&Restaurant{}).Where("id = ?", id).Update("is_approved", approved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("restaurant")
	}
	return nil
}

func (r *repository) UpdateRatingStats(ctx context.Context, id uuid.UUID, rating float64, count int) error {
	return database.Conn(ctx, r.db).Model(&Restaurant{}).Where("id = ?", id).
		Updates(map[string]interface{}{"rating": rating, "review_count": count}).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Restaurant, int64, error) {
	filter.normalize()
	query := database.Conn(ctx, r.db).Model(&Restaurant{})

	if filter.OnlyApproved {
		query = query.Where("is_approved = ?", true)
	}
	if filter.OnlyPending {
		query = query.Where("is_approved = ?", false)
	}
	if filter.ManagerID != nil {
		query = query.Where("manager_id = ?", *filter.ManagerID)
	}
	if filter.Cuisine != "" {
		query = query.Where("LOWER(cuisine) = ?", strings.ToLower(filter.Cuisine))
	}
	if filter.City != "" {
		query = query.Where("LOWER(address_city) = ?", strings.ToLower(filter.City))
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(cuisine) LIKE ?)", like, like, like)
	}
	if filter.MinRating > 0 {
		query = query.Where("rating >= ?", filter.MinRating)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("price_range <= ?", filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var restaurants []Restaurant
	err := query.Order("rating DESC, name ASC").
		Offset(filter.offset()).
		Limit(filter.Limit).
		Find(&restaurants).Error
	if err != nil {
		return nil, 0, err
	}
	return restaurants, total, nil
}
