package auth

import "github.com/google/uuid"

type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated caller as established by the auth service.
// The services here consume it; they never mint or store credentials.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}
