package repository

import (
	"context"
	"testing"

	"feira/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_UpsertByEmail_CreatesWithDefaultRole(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.UpsertByEmail(ctx, "Nova Pessoa", "Nova@Example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "nova@example.com", user.Email)
	assert.NotZero(t, user.ID)
}

func TestUserRepository_UpsertByEmail_ReturnsExistingWithoutRoleChange(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	admin := &models.User{Name: "Admin", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, repo.Create(ctx, admin))

	// Re-syncing the same email must not touch the stored role.
	got, err := repo.UpsertByEmail(ctx, "Ignored Name", "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestUserRepository_GetByEmail_CaseInsensitive(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "mixed@example.com", Password: "x", Role: models.RoleUser}))

	got, err := repo.GetByEmail(ctx, "MIXED@Example.COM")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mixed@example.com", got.Email)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_SetRole(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Name: "Promovida", Email: "promote@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.SetRole(ctx, user.ID, models.RoleAdmin))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	err = repo.SetRole(ctx, 9999, models.RoleAdmin)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestUserRepository_ListAdmins(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "Chefe", Email: "chefe@example.com", Password: "x", Role: models.RoleAdmin}))
	require.NoError(t, repo.Create(ctx, &models.User{Name: "Comum", Email: "comum@example.com", Password: "x", Role: models.RoleUser}))

	admins, err := repo.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "chefe@example.com", admins[0].Email)
}
