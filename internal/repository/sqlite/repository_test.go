package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Init(ctx))
	require.NoError(t, NewTodoRepository(db).Init(ctx))
	return db
}

func createUser(t *testing.T, repo repository.UserRepository, email string) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehashfakehash",
	}
	_, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestUserRepositoryCreateAssignsID(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	user := createUser(t, repo, "penelope@pingpong.com")
	assert.NotEmpty(t, user.ID)

	got, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "penelope@pingpong.com", got.Email)
	assert.Empty(t, got.Tokens)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	first := createUser(t, repo, "penelope@pingpong.com")

	_, err := repo.Create(ctx, &domain.User{
		Email:        "penelope@pingpong.com",
		PasswordHash: "other",
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	// the original registration is untouched
	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.PasswordHash, got.PasswordHash)
}

func TestUserRepositoryGetMissing(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@nowhere.org")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepositoryTokenLifecycle(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := createUser(t, repo, "penelope@pingpong.com")

	require.NoError(t, repo.AppendToken(ctx, user.ID, "auth", "token-one"))
	require.NoError(t, repo.AppendToken(ctx, user.ID, "auth", "token-two"))

	got, err := repo.GetByToken(ctx, "token-one", "auth")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Len(t, got.Tokens, 2)

	// removal only touches the matching entry
	require.NoError(t, repo.RemoveToken(ctx, user.ID, "token-one"))

	_, err = repo.GetByToken(ctx, "token-one", "auth")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err = repo.GetByToken(ctx, "token-two", "auth")
	require.NoError(t, err)
	assert.Len(t, got.Tokens, 1)
}

func TestUserRepositoryGetByTokenScope(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := createUser(t, repo, "penelope@pingpong.com")
	require.NoError(t, repo.AppendToken(ctx, user.ID, "auth", "token-one"))

	_, err := repo.GetByToken(ctx, "token-one", "admin")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTodoRepositoryCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	todos := NewTodoRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "penelope@pingpong.com")

	todo := &domain.Todo{Text: "clean my cupboard", CreatorID: owner.ID}
	_, err := todos.Create(ctx, todo)
	require.NoError(t, err)
	require.NotEmpty(t, todo.ID)

	got, err := todos.Get(ctx, todo.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "clean my cupboard", got.Text)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
}

func TestTodoRepositoryCreatorScoping(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	todos := NewTodoRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "penelope@pingpong.com")
	other := createUser(t, users, "kirin@mashimoto.org")

	todo := &domain.Todo{Text: "wash my clothes", CreatorID: owner.ID}
	_, err := todos.Create(ctx, todo)
	require.NoError(t, err)

	// another creator's lookup behaves exactly like a miss
	_, err = todos.Get(ctx, todo.ID, other.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = todos.Delete(ctx, todo.ID, other.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stranger := &domain.Todo{ID: todo.ID, Text: "hijacked", CreatorID: other.ID}
	err = todos.Update(ctx, stranger)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := todos.Get(ctx, todo.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "wash my clothes", got.Text)
}

func TestTodoRepositoryListByCreator(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	todos := NewTodoRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "penelope@pingpong.com")
	other := createUser(t, users, "kirin@mashimoto.org")

	for _, text := range []string{"clean my cupboard", "wash my clothes"} {
		_, err := todos.Create(ctx, &domain.Todo{Text: text, CreatorID: owner.ID})
		require.NoError(t, err)
	}
	_, err := todos.Create(ctx, &domain.Todo{Text: "someone else's", CreatorID: other.ID})
	require.NoError(t, err)

	list, err := todos.ListByCreator(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, item := range list {
		assert.Equal(t, owner.ID, item.CreatorID)
	}
}

func TestTodoRepositoryUpdate(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	todos := NewTodoRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "penelope@pingpong.com")

	todo := &domain.Todo{Text: "wash my clothes", CreatorID: owner.ID}
	_, err := todos.Create(ctx, todo)
	require.NoError(t, err)

	stamp := int64(333)
	todo.Completed = true
	todo.CompletedAt = &stamp
	require.NoError(t, todos.Update(ctx, todo))

	got, err := todos.Get(ctx, todo.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, int64(333), *got.CompletedAt)
}

func TestTodoRepositoryDelete(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	todos := NewTodoRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "penelope@pingpong.com")

	todo := &domain.Todo{Text: "clean my cupboard", CreatorID: owner.ID}
	_, err := todos.Create(ctx, todo)
	require.NoError(t, err)

	require.NoError(t, todos.Delete(ctx, todo.ID, owner.ID))

	_, err = todos.Get(ctx, todo.ID, owner.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = todos.Delete(ctx, todo.ID, owner.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
