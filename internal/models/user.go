package models

import "time"

// Roles known to the service.
const (
	RoleAdmin = "admin"
)

// User is an account allowed to sign in. Email is the unique, case-sensitive key.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
