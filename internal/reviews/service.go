package reviews

import (
	"context"
	"fmt"
	"strings"

	"tablewise/internal/notifications"
	"tablewise/internal/restaurants"
	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/identity"
	"tablewise/pkg/logger"

	"github.com/google/uuid"
)

// RestaurantRatings resolves restaurants and stores their rating aggregate.
type RestaurantRatings interface {
	Resolve(ctx context.Context, id uuid.UUID) (restaurants.Restaurant, error)
	ApplyRatingStats(ctx context.Context, id uuid.UUID, rating float64, count int) error
}

// VisitChecker reports whether a guest has dined at a restaurant.
type VisitChecker interface {
	HasCompletedBooking(ctx context.Context, userID, restaurantID uuid.UUID) (bool, error)
}

type Service interface {
	CreateReview(ctx context.Context, requester identity.Requester, restaurantID uuid.UUID, req CreateReviewRequest) (*ReviewResponse, error)
	ListReviews(ctx context.Context, restaurantID uuid.UUID, query ListQuery) (*PaginatedReviews, error)
	DeleteReview(ctx context.Context, requester identity.Requester, id uuid.UUID) error
}

type service struct {
	repo         Repository
	restaurants  RestaurantRatings
	visits       VisitChecker
	users        notifications.UserDirectory
	requireVisit bool
	log          *logger.Logger
}

func NewService(repo Repository, ratings RestaurantRatings, visits VisitChecker, users notifications.UserDirectory, requireVisit bool) Service {
	return &service{
		repo:         repo,
		restaurants:  ratings,
		visits:       visits,
		users:        users,
		requireVisit: requireVisit,
		log:          logger.GetDefault(),
	}
}

func (s *service) CreateReview(ctx context.Context, requester identity.Requester, restaurantID uuid.UUID, req CreateReviewRequest) (*ReviewResponse, error) {
	if requester.Role != identity.RoleCustomer {
		return nil, fmt.Errorf("%w: only guests can review restaurants", apperrors.ErrUnauthorized)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.Invalid("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(req.Comment)
	if len(comment) < 10 {
		return nil, apperrors.Invalid("review must be at least 10 characters")
	}

	restaurant, err := s.restaurants.Resolve(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.IsApproved {
		return nil, apperrors.NotFound("restaurant")
	}

	exists, err := s.repo.Exists(ctx, restaurantID, requester.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: you have already reviewed this restaurant", apperrors.ErrAlreadyExists)
	}

	if s.requireVisit {
		visited, err := s.visits.HasCompletedBooking(ctx, requester.UserID, restaurantID)
		if err != nil {
			return nil, err
		}
		if !visited {
			return nil, fmt.Errorf("%w: only guests with a completed booking can review", apperrors.ErrUnauthorized)
		}
	}

	review := &Review{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		UserID:       requester.UserID,
		UserName:     s.displayName(ctx, requester.UserID),
		Rating:       req.Rating,
		Comment:      comment,
	}

	err = s.repo.Atomically(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, review); err != nil {
			return err
		}
		return s.refreshRating(txCtx, restaurantID)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoWithContext(ctx, "Review created", map[string]interface{}{
		"review_id":     review.ID.String(),
		"restaurant_id": restaurantID.String(),
		"rating":        review.Rating,
	})

	resp := review.ToResponse()
	return &resp, nil
}

func (s *service) ListReviews(ctx context.Context, restaurantID uuid.UUID, query ListQuery) (*PaginatedReviews, error) {
	restaurant, err := s.restaurants.Resolve(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	query.normalize()
	items, total, err := s.repo.ListByRestaurant(ctx, restaurantID, query.Page, query.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]ReviewResponse, 0, len(items))
	for i := range items {
		out = append(out, items[i].ToResponse())
	}
	return &PaginatedReviews{
		Reviews:       out,
		AverageRating: restaurant.Rating,
		TotalCount:    total,
		Page:          query.Page,
		Limit:         query.Limit,
		TotalPages:    calculateTotalPages(total, query.Limit),
	}, nil
}

// DeleteReview removes a review. Only its author or an admin may do so.
func (s *service) DeleteReview(ctx context.Context, requester identity.Requester, id uuid.UUID) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != requester.UserID && !requester.IsAdmin() {
		return apperrors.ErrUnauthorized
	}

	return s.repo.Atomically(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return s.refreshRating(txCtx, review.RestaurantID)
	})
}

func (s *service) refreshRating(ctx context.Context, restaurantID uuid.UUID) error {
	stats, err := s.repo.Stats(ctx, restaurantID)
	if err != nil {
		return err
	}
	return s.restaurants.ApplyRatingStats(ctx, restaurantID, stats.Average, stats.Count)
}

func (s *service) displayName(ctx context.Context, userID uuid.UUID) string {
	if s.users == nil {
		return ""
	}
	_, name, err := s.users.GetUserContact(ctx, userID)
	if err != nil {
		return ""
	}
	return name
}
