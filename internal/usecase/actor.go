package usecase

import (
	"clothing-store/internal/data/entity"

	"github.com/google/uuid"
)

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	UserID uuid.UUID
	Role   entity.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

// CanAccess reports whether the actor may read or change a resource owned by owner.
func (a Actor) CanAccess(owner uuid.UUID) bool {
	return a.IsAdmin() || a.UserID == owner
}
