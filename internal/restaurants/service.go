package restaurants

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/constants"
	"tablewise/internal/shared/identity"
	"tablewise/pkg/cache"
	"tablewise/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	CreateRestaurant(ctx context.Context, requester identity.Requester, req CreateRestaurantRequest) (*RestaurantResponse, error)
	UpdateRestaurant(ctx context.Context, requester identity.Requester, id uuid.UUID, req UpdateRestaurantRequest) (*RestaurantResponse, error)
	SetApproval(ctx context.Context, id uuid.UUID, approved bool) (*RestaurantResponse, error)
	GetRestaurant(ctx context.Context, requester *identity.Requester, id uuid.UUID) (*RestaurantResponse, error)
	ListRestaurants(ctx context.Context, query ListQuery) (*PaginatedRestaurants, error)
	ListManagedRestaurants(ctx context.Context, requester identity.Requester) ([]RestaurantResponse, error)
	ListPending(ctx context.Context, page, limit int) (*PaginatedRestaurants, error)

	// Engine-facing lookups
	Resolve(ctx context.Context, id uuid.UUID) (Restaurant, error)
	ListApproved(ctx context.Context, filter ListFilter) ([]Restaurant, error)
	ManagedIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
	ApplyRatingStats(ctx context.Context, id uuid.UUID, rating float64, count int) error
}

type service struct {
	repo         Repository
	cacheService cache.Service
	log          *logger.Logger
}

func NewService(repo Repository, cacheService cache.Service) Service {
	if cacheService == nil {
		cacheService = cache.Noop{}
	}
	return &service{
		repo:         repo,
		cacheService: cacheService,
		log:          logger.GetDefault(),
	}
}

func (s *service) CreateRestaurant(ctx context.Context, requester identity.Requester, req CreateRestaurantRequest) (*RestaurantResponse, error) {
	if !requester.IsManager() && !requester.IsAdmin() {
		return nil, apperrors.ErrUnauthorized
	}

	hours := req.Hours.Normalize()
	if err := hours.Validate(); err != nil {
		return nil, err
	}

	managerID := requester.UserID
	if requester.IsAdmin() && req.ManagerID != "" {
		id, err := uuid.Parse(req.ManagerID)
		if err != nil {
			return nil, apperrors.Invalid("manager_id must be a UUID")
		}
		managerID = id
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	slotMinutes := req.SlotMinutes
	if slotMinutes == 0 {
		slotMinutes = DefaultSlotMinutes
	}

	restaurant := &Restaurant{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Cuisine:     strings.TrimSpace(req.Cuisine),
		PriceRange:  req.PriceRange,
		Address:     req.Address.toModel(),
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		Hours:       hours,
		Capacity:    req.Capacity,
		SlotMinutes: slotMinutes,
		Timezone:    timezone,
		Images:      req.Images,
		ManagerID:   managerID,
		// Restaurants listed by managers wait for an admin.
		IsApproved: requester.IsAdmin(),
	}

	if err := s.repo.Create(ctx, restaurant); err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}
	s.invalidateLists(ctx)

	s.log.InfoContext(ctx, "Restaurant Created",
		slog.String("restaurant_id", restaurant.ID.String()),
		slog.String("manager_id", managerID.String()),
		slog.Bool("approved", restaurant.IsApproved),
	)

	resp := restaurant.ToResponse()
	return &resp, nil
}

func (s *service) UpdateRestaurant(ctx context.Context, requester identity.Requester, id uuid.UUID, req UpdateRestaurantRequest) (*RestaurantResponse, error) {
	restaurant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && !restaurant.ManagedBy(requester.UserID) {
		return nil, apperrors.ErrUnauthorized
	}

	if req.Name != nil {
		restaurant.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		restaurant.Description = *req.Description
	}
	if req.Cuisine != nil {
		restaurant.Cuisine = strings.TrimSpace(*req.Cuisine)
	}
	if req.PriceRange != nil {
		restaurant.PriceRange = *req.PriceRange
	}
	if req.Address != nil {
		restaurant.Address = req.Address.toModel()
	}
	if req.Phone != nil {
		restaurant.Phone = *req.Phone
	}
	if req.Email != nil {
		restaurant.Email = *req.Email
	}
	if req.Website != nil {
		restaurant.Website = *req.Website
	}
	if req.Hours != nil {
		hours := req.Hours.Normalize()
		if err := hours.Validate(); err != nil {
			return nil, err
		}
		restaurant.Hours = hours
	}
	if req.Capacity != nil {
		restaurant.Capacity = *req.Capacity
	}
	if req.SlotMinutes != nil {
		restaurant.SlotMinutes = *req.SlotMinutes
	}
	if req.Timezone != nil {
		restaurant.Timezone = *req.Timezone
	}
	if req.Images != nil {
		restaurant.Images = req.Images
	}

	if err := s.repo.Save(ctx, restaurant); err != nil {
		return nil, fmt.Errorf("failed to update restaurant: %w", err)
	}
	s.invalidate(ctx, id)

	resp := restaurant.ToResponse()
	return &resp, nil
}

func (s *service) SetApproval(ctx context.Context, id uuid.UUID, approved bool) (*RestaurantResponse, error) {
	if err := s.repo.SetApproval(ctx, id, approved); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	restaurant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := restaurant.ToResponse()
	return &resp, nil
}

// GetRestaurant hides unapproved restaurants from everyone but their manager and admins.
func (s *service) GetRestaurant(ctx context.Context, requester *identity.Requester, id uuid.UUID) (*RestaurantResponse, error) {
	restaurant, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !restaurant.IsApproved {
		if requester == nil || (!requester.IsAdmin() && !restaurant.ManagedBy(requester.UserID)) {
			return nil, apperrors.NotFound("restaurant")
		}
	}
	resp := restaurant.ToResponse()
	return &resp, nil
}

func (s *service) ListRestaurants(ctx context.Context, query ListQuery) (*PaginatedRestaurants, error) {
	filter := ListFilter{
		Cuisine:      query.Cuisine,
		City:         query.City,
		Search:       query.Search,
		MinRating:    query.MinRating,
		MaxPrice:     query.MaxPrice,
		OnlyApproved: true,
		Page:         query.Page,
		Limit:        query.Limit,
	}
	filter.normalize()

	var result PaginatedRestaurants
	err := s.cacheService.GetOrSet(ctx, constants.BuildRestaurantListKey(filterHash(filter)), constants.TTL_RESTAURANTS_LIST,
		func(ctx context.Context) (interface{}, error) {
			return s.page(ctx, filter)
		}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) ListManagedRestaurants(ctx context.Context, requester identity.Requester) ([]RestaurantResponse, error) {
	filter := ListFilter{ManagerID: &requester.UserID, Page: 1, Limit: 100}
	items, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]RestaurantResponse, 0, len(items))
	for i := range items {
		out = append(out, items[i].ToResponse())
	}
	return out, nil
}

func (s *service) ListPending(ctx context.Context, page, limit int) (*PaginatedRestaurants, error) {
	filter := ListFilter{OnlyPending: true, Page: page, Limit: limit}
	filter.normalize()
	return s.page(ctx, filter)
}

// Resolve returns a copy of the restaurant, served from cache when possible.
func (s *service) Resolve(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	var restaurant Restaurant
	err := s.cacheService.GetOrSet(ctx, constants.BuildRestaurantDetailKey(id.String()), constants.TTL_RESTAURANT_DETAIL,
		func(ctx context.Context) (interface{}, error) {
			return s.repo.GetByID(ctx, id)
		}, &restaurant)
	if err != nil {
		return Restaurant{}, err
	}
	return restaurant, nil
}

func (s *service) ListApproved(ctx context.Context, filter ListFilter) ([]Restaurant, error) {
	filter.OnlyApproved = true
	items, _, err := s.repo.List(ctx, filter)
	return items, err
}

func (s *service) ManagedIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	items, _, err := s.repo.List(ctx, ListFilter{ManagerID: &managerID, Page: 1, Limit: 100})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, r := range items {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (s *service) ApplyRatingStats(ctx context.Context, id uuid.UUID, rating float64, count int) error {
	if err := s.repo.UpdateRatingStats(ctx, id, math.Round(rating*10)/10, count); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *service) page(ctx context.Context, filter ListFilter) (*PaginatedRestaurants, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]RestaurantResponse, 0, len(items))
	for i := range items {
		out = append(out, items[i].ToResponse())
	}
	return &PaginatedRestaurants{
		Restaurants: out,
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cacheService.Delete(ctx, constants.BuildRestaurantDetailKey(id.String())); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate restaurant cache", slog.String("error", err.Error()))
	}
	s.invalidateLists(ctx)
}

func (s *service) invalidateLists(ctx context.Context) {
	if err := s.cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_RESTAURANTS_LIST); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate restaurant lists", slog.String("error", err.Error()))
	}
}

func filterHash(f ListFilter) string {
	raw := fmt.Sprintf("%s|%s|%s|%.1f|%d|%d|%d", strings.ToLower(f.Cuisine), strings.ToLower(f.City),
		strings.ToLower(f.Search), f.MinRating, f.MaxPrice, f.Page, f.Limit)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
