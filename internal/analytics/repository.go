package analytics

import (
	"context"

	"tablewise/internal/shared/database"

	"gorm.io/gorm"
)

// Repository runs the aggregate queries behind the dashboards.
type Repository interface {
	StatusCounts(ctx context.Context, scope Scope) ([]StatusCount, error)
	DailyCounts(ctx context.Context, scope Scope) ([]DayCount, error)
	RestaurantCounts(ctx context.Context, scope Scope) ([]RestaurantCount, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new analytics repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) scoped(ctx context.Context, scope Scope) *gorm.DB {
	query := database.Conn(ctx, r.db).Table("bookings b").Where("b.created_at >= ?", scope.Since)
	if scope.RestaurantIDs != nil {
		query = query.Where("b.restaurant_id IN ?", scope.RestaurantIDs)
	}
	if scope.UserID != nil {
		query = query.Where("b.user_id = ?", *scope.UserID)
	}
	return query
}

func (r *repository) StatusCounts(ctx context.Context, scope Scope) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.scoped(ctx, scope).
		Select("b.status AS status, COUNT(*) AS count, COALESCE(SUM(b.party_size), 0) AS seats").
		Group("b.status").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) DailyCounts(ctx context.Context, scope Scope) ([]DayCount, error) {
	var rows []DayCount
	err := r.scoped(ctx, scope).
		Select("TO_CHAR(b.created_at, 'YYYY-MM-DD') AS date, COUNT(*) AS count").
		Group("TO_CHAR(b.created_at, 'YYYY-MM-DD')").
		Order("date").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) RestaurantCounts(ctx context.Context, scope Scope) ([]RestaurantCount, error) {
	var rows []RestaurantCount
	err := r.scoped(ctx, scope).
		Joins("JOIN restaurants r ON r.id = b.restaurant_id").
		Select("r.id::text AS restaurant_id, r.name AS name, COUNT(b.id) AS count").
		Group("r.id, r.name").
		Order("count DESC, r.name").
		Scan(&rows).Error
	return rows, err
}
