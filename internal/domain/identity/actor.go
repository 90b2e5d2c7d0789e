package identity

import (
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSeeker    Role = "seeker"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// Actor is the authenticated caller as asserted by the upstream identity service.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSeeker, RoleRecruiter, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

func (a Actor) Is(role Role) bool {
	return a.ID != uuid.Nil && a.Role == role
}
