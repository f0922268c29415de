package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UserServiceAdapter exposes guest contact details to notifications and reviews
// without those packages importing auth.
type UserServiceAdapter struct {
	repo Repository
}

// NewUserServiceAdapter creates a new user service adapter
func NewUserServiceAdapter(repo Repository) *UserServiceAdapter {
	return &UserServiceAdapter{
		repo: repo,
	}
}

// GetUserContact returns the email and display name of a user.
func (usa *UserServiceAdapter) GetUserContact(ctx context.Context, userID uuid.UUID) (email, name string, err error) {
	user, err := usa.repo.GetUserByID(ctx, userID.String())
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}

	return user.Email, user.FullName(), nil
}
