package domain

import "fmt"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

// Actor is the already-authenticated caller of an operation.
type Actor struct {
	ID   uint64 `json:"id"`
	Role Role   `json:"role"`
}

func (a Actor) Owns(ownerID uint64) bool {
	return a.ID != 0 && a.ID == ownerID
}

// Authorize is the single ownership check every mutating operation goes through.
func Authorize(a Actor, ownerID uint64, what string) error {
	if !a.Owns(ownerID) {
		return fmt.Errorf("%w: user %d does not own %s", ErrNotAuthorized, a.ID, what)
	}
	return nil
}

// RequireRole fails unless the actor acts in the given role.
func RequireRole(a Actor, role Role) error {
	if a.ID == 0 {
		return fmt.Errorf("%w: anonymous caller", ErrNotAuthorized)
	}
	if a.Role != role {
		return fmt.Errorf("%w: %s role required", ErrNotAuthorized, role)
	}
	return nil
}
