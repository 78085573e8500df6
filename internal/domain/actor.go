package domain

import "github.com/google/uuid"

// Actor is the signed-in user a request acts for.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// IsAdmin reports whether the actor may act on any tenant's data.
func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}
