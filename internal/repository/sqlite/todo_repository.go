package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

const createTodosTable = `
CREATE TABLE IF NOT EXISTS todos (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	completed_at INTEGER NULL,
	creator_id TEXT NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_todos_creator ON todos(creator_id);
`

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) repository.TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTodosTable); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}
	return nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (string, error) {
	now := time.Now().UTC()
	todo.ID = uuid.NewString()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO todos (id, text, completed, completed_at, creator_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.ID,
		todo.Text,
		todo.Completed,
		todo.CompletedAt,
		todo.CreatorID,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert todo: %w", err)
	}
	return todo.ID, nil
}

func (r *TodoRepository) Get(ctx context.Context, id, creatorID string) (*domain.Todo, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, text, completed, completed_at, creator_id, created_at, updated_at
FROM todos
WHERE id = ? AND creator_id = ?`,
		id,
		creatorID,
	)
	return scanTodo(row)
}

func (r *TodoRepository) ListByCreator(ctx context.Context, creatorID string) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, text, completed, completed_at, creator_id, created_at, updated_at
FROM todos
WHERE creator_id = ?
ORDER BY created_at, id`,
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []domain.Todo
	for rows.Next() {
		var t domain.Todo
		if err := rows.Scan(
			&t.ID,
			&t.Text,
			&t.Completed,
			&t.CompletedAt,
			&t.CreatorID,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

func (r *TodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	todo.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE todos
SET text = ?, completed = ?, completed_at = ?, updated_at = ?
WHERE id = ? AND creator_id = ?`,
		todo.Text,
		todo.Completed,
		todo.CompletedAt,
		todo.UpdatedAt,
		todo.ID,
		todo.CreatorID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update todo rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TodoRepository) Delete(ctx context.Context, id, creatorID string) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM todos
WHERE id = ? AND creator_id = ?`,
		id,
		creatorID,
	)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanTodo(row *sql.Row) (*domain.Todo, error) {
	var t domain.Todo
	if err := row.Scan(
		&t.ID,
		&t.Text,
		&t.Completed,
		&t.CompletedAt,
		&t.CreatorID,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}
	return &t, nil
}
