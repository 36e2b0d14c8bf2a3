package repository

import (
	"context"

	"todo-server/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByToken returns the user that currently holds the exact token string
	// under the given access scope. Removed tokens never resolve.
	GetByToken(ctx context.Context, token, access string) (*domain.User, error)
	// AppendToken adds a token entry for the user. The append targets the
	// token list directly so concurrent appends for the same user both land.
	AppendToken(ctx context.Context, userID, access, token string) error
	// RemoveToken deletes the matching token entry if present.
	RemoveToken(ctx context.Context, userID, token string) error
}
