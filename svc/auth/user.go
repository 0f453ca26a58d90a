package auth

import (
	"context"

	"github.com/google/uuid"
)

// User status values recognized by the login gate.
const (
	StatusActive              = "active"
	StatusPendingVerification = "pending_verification"
)

// User is the account projection the auth service needs. PasswordHash holds
// the adaptive hash produced at signup; the plain password never leaves
// Login's stack.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
}

// UserStorage is the narrow user-lookup interface the service consumes.
// Implementations return ErrUserNotFound for unknown users.
type UserStorage interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}
