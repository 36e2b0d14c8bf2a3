package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"todo-server/internal/auth"
	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are
	// incorrect. Lookup misses and hash mismatches collapse into this one
	// error so callers cannot tell which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail is returned when registering with an email another
	// user already owns.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnauthorized indicates a missing, invalid, or revoked token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("invalid input")
)

var validate = validator.New()

// UserService describes account lifecycle and session operations.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// FindByToken resolves a token to the user that still holds it. A token
	// whose signature verifies but which has been revoked does not resolve.
	FindByToken(ctx context.Context, token string) (*domain.User, error)
	// IssueToken signs a new auth-scoped token for the user and appends it to
	// the user's active sessions.
	IssueToken(ctx context.Context, userID string) (string, error)
	RevokeToken(ctx context.Context, userID, token string) error
}

type userService struct {
	users  repository.UserRepository
	tokens *auth.TokenCodec
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenCodec) UserService {
	return &userService{
		users:  users,
		tokens: tokens,
	}
}

func (s *userService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid email", ErrValidation, email)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.Access != domain.TokenAccessAuth {
		return nil, ErrUnauthorized
	}

	// The store must still hold this exact token string; revocation removes
	// the row even though the signature stays valid.
	user, err := s.users.GetByToken(ctx, token, domain.TokenAccessAuth)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if user.ID != claims.UserID {
		return nil, ErrUnauthorized
	}

	return sanitizeUser(user), nil
}

func (s *userService) IssueToken(ctx context.Context, userID string) (string, error) {
	token, err := s.tokens.Issue(userID, domain.TokenAccessAuth)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.users.AppendToken(ctx, userID, domain.TokenAccessAuth, token); err != nil {
		return "", err
	}
	return token, nil
}

func (s *userService) RevokeToken(ctx context.Context, userID, token string) error {
	return s.users.RemoveToken(ctx, userID, token)
}

// sanitizeUser strips everything that must never leave the service boundary:
// the password hash and the token list.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
