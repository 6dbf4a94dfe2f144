// Package models holds the marketplace records as stored in PostgreSQL and
// returned by the API.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's permission level. Only an admin changes it.
type Role string

const (
	RoleUser       Role = "USER"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User is a local account linked to an identity-provider subject.
type User struct {
	ID          uuid.UUID `json:"id"`
	FirebaseUID string    `json:"firebaseUid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
