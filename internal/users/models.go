package users

import (
	"time"

	"tablewise/internal/shared/identity"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = identity.RoleCustomer
	RoleManager  Role = identity.RoleManager
	RoleAdmin    Role = identity.RoleAdmin
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	FirstName string    `json:"first_name" gorm:"not null"`
	LastName  string    `json:"last_name" gorm:"not null"`
	Password  string    `json:"-" gorm:"not null"` // hide in json
	Role      Role      `json:"role" gorm:"not null;default:'CUSTOMER'"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleCustomer, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}
