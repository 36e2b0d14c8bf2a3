package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// Tokens live in their own table so appending and removing a session is a
// single INSERT/DELETE. Concurrent logins for the same user never clobber
// each other the way a read-modify-write of one row would.
const createUserTokensTable = `
CREATE TABLE IF NOT EXISTS user_tokens (
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	access TEXT NOT NULL,
	token TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, token)
);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createUserTokensTable); err != nil {
		return fmt.Errorf("create user_tokens table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return "", repository.ErrDuplicateEmail
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, created_at, updated_at
FROM users
WHERE email = ?`,
		email,
	)
	return r.scanUser(ctx, row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, created_at, updated_at
FROM users
WHERE id = ?`,
		id,
	)
	return r.scanUser(ctx, row)
}

func (r *UserRepository) GetByToken(ctx context.Context, token, access string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT u.id, u.name, u.email, u.password_hash, u.created_at, u.updated_at
FROM users u
JOIN user_tokens t ON t.user_id = u.id
WHERE t.token = ? AND t.access = ?`,
		token,
		access,
	)
	return r.scanUser(ctx, row)
}

func (r *UserRepository) AppendToken(ctx context.Context, userID, access, token string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO user_tokens (user_id, access, token, created_at)
VALUES (?, ?, ?, ?)`,
		userID,
		access,
		token,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert user token: %w", err)
	}
	return nil
}

func (r *UserRepository) RemoveToken(ctx context.Context, userID, token string) error {
	if _, err := r.db.ExecContext(ctx, `
DELETE FROM user_tokens
WHERE user_id = ? AND token = ?`,
		userID,
		token,
	); err != nil {
		return fmt.Errorf("delete user token: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(ctx context.Context, row *sql.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	tokens, err := r.listTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Tokens = tokens
	return &user, nil
}

func (r *UserRepository) listTokens(ctx context.Context, userID string) ([]domain.UserToken, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT access, token
FROM user_tokens
WHERE user_id = ?
ORDER BY created_at, token`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.UserToken
	for rows.Next() {
		var t domain.UserToken
		if err := rows.Scan(&t.Access, &t.Token); err != nil {
			return nil, fmt.Errorf("scan user token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user tokens: %w", err)
	}
	return tokens, nil
}
