// Package identity carries the authenticated caller through the service layer.
package identity

import (
	"github.com/google/uuid"
)

const (
	RoleCustomer = "CUSTOMER"
	RoleManager  = "RESTAURANT_MANAGER"
	RoleAdmin    = "ADMIN"
)

// Requester is the authenticated user a request acts on behalf of.
type Requester struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

func (r Requester) IsAdmin() bool   { return r.Role == RoleAdmin }
func (r Requester) IsManager() bool { return r.Role == RoleManager }

// System is used by background jobs and operator commands.
var System = Requester{UserID: uuid.Nil, Role: RoleAdmin}
