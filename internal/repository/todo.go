package repository

import (
	"context"

	"todo-server/internal/domain"
)

// TodoRepository exposes persistence operations for Todo entities. Every
// operation except Create is scoped by the owning creator id; a todo owned by
// someone else behaves exactly like a missing one.
type TodoRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, todo *domain.Todo) (string, error)
	Get(ctx context.Context, id, creatorID string) (*domain.Todo, error)
	ListByCreator(ctx context.Context, creatorID string) ([]domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, id, creatorID string) error
}
