package auth

import "github.com/google/uuid"

// Role distinguishes the two kinds of authenticated principals
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Principal is the authenticated identity threaded explicitly into every
// core operation. For customers, ID is the customer record's ID.
type Principal struct {
	ID   uuid.UUID
	Role Role
	Name string
}

// IsAdmin returns true for back-office principals
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CustomerID returns the customer ID this principal acts for, or
// uuid.Nil for admin principals.
func (p Principal) CustomerID() uuid.UUID {
	if p.Role != RoleCustomer {
		return uuid.Nil
	}
	return p.ID
}
