package domain

import "time"

// TokenAccessAuth is the only token scope issued by the system.
const TokenAccessAuth = "auth"

// User represents a registered account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Tokens       []UserToken
}

// UserToken is one active session credential held by a user. A user may hold
// several concurrently (one per device).
type UserToken struct {
	Access string
	Token  string
}
