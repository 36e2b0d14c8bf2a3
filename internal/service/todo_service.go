package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

var (
	// ErrNotFound indicates the todo does not exist or belongs to someone
	// else. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("todo not found")
	// ErrAlreadyCompleted is returned when completing a todo that is already
	// completed; the original timestamp is kept.
	ErrAlreadyCompleted = errors.New("todo is already completed")
)

// TodoPatch carries the caller-settable fields of an update. Nil means the
// field was absent from the request.
type TodoPatch struct {
	Text      *string
	Completed *bool
}

// TodoService coordinates todo operations for a single owning user.
type TodoService interface {
	Create(ctx context.Context, text, creatorID string) (*domain.Todo, error)
	Get(ctx context.Context, id, creatorID string) (*domain.Todo, error)
	ListForCreator(ctx context.Context, creatorID string) ([]domain.Todo, error)
	Update(ctx context.Context, id, creatorID string, patch TodoPatch) (*domain.Todo, error)
	Delete(ctx context.Context, id, creatorID string) (*domain.Todo, error)
}

type todoService struct {
	todos repository.TodoRepository
	now   func() time.Time
}

func NewTodoService(todos repository.TodoRepository) TodoService {
	return &todoService{
		todos: todos,
		now:   time.Now,
	}
}

func (s *todoService) Create(ctx context.Context, text, creatorID string) (*domain.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	todo := &domain.Todo{
		Text:      text,
		CreatorID: creatorID,
	}
	if _, err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Get(ctx context.Context, id, creatorID string) (*domain.Todo, error) {
	todo, err := s.todos.Get(ctx, id, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return todo, nil
}

func (s *todoService) ListForCreator(ctx context.Context, creatorID string) ([]domain.Todo, error) {
	return s.todos.ListByCreator(ctx, creatorID)
}

// Update applies the patch and derives the completion timestamp: completing a
// todo stamps the current epoch milliseconds, completing it again is a
// conflict, and anything else forces the todo back to not-completed.
func (s *todoService) Update(ctx context.Context, id, creatorID string, patch TodoPatch) (*domain.Todo, error) {
	todo, err := s.todos.Get(ctx, id, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: text must not be empty", ErrValidation)
		}
		todo.Text = text
	}

	if patch.Completed != nil && *patch.Completed {
		if todo.Completed {
			return nil, ErrAlreadyCompleted
		}
		now := s.now().UnixMilli()
		todo.Completed = true
		todo.CompletedAt = &now
	} else {
		todo.Completed = false
		todo.CompletedAt = nil
	}

	if err := s.todos.Update(ctx, todo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, id, creatorID string) (*domain.Todo, error) {
	todo, err := s.todos.Get(ctx, id, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.todos.Delete(ctx, id, creatorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return todo, nil
}
