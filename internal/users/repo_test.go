package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novatech/management-backend/internal/users"
	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/db/dbtest"
	"github.com/novatech/management-backend/pkg/db/models"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	client := dbtest.Open(t)
	repo := users.NewRepository(client.DB())
	ctx := context.Background()

	created, err := repo.Create(ctx, users.CreateUserDTO{Email: "ana@novatech.test", PasswordHash: "hash", FirstName: "Ana"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Nil(t, created.LastName)

	byEmail, err := repo.FindByEmail(ctx, "ana@novatech.test")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, created.ID+100)
	assert.True(t, db.IsNotFound(err))

	_, err = repo.Create(ctx, users.CreateUserDTO{Email: "ana@novatech.test", PasswordHash: "hash"})
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryRoleNames(t *testing.T) {
	client := dbtest.Open(t)
	repo := users.NewRepository(client.DB())
	ctx := context.Background()

	user, err := repo.Create(ctx, users.CreateUserDTO{Email: "u@novatech.test", PasswordHash: "hash"})
	require.NoError(t, err)

	names, err := repo.RoleNames(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, names)

	var roles []models.Role
	require.NoError(t, client.DB().Order("id").Find(&roles).Error)
	for _, role := range roles {
		require.NoError(t, client.DB().Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error)
	}

	names, err = repo.RoleNames(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin", "User"}, names)
}

func TestFromModelNeverReturnsNilRoles(t *testing.T) {
	dto := users.FromModel(&models.User{ID: 1, Email: "x@y.z"}, nil)
	require.NotNil(t, dto.Roles)
	assert.Empty(t, dto.FirstName)
	assert.Nil(t, users.FromModel(nil, nil))
}
